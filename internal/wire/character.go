package wire

// CharacterInfo is the persistent character state that travels on the
// master channel: master to node when a character enters a map, node
// back to master when it leaves.
type CharacterInfo struct {
	CharacterID int32
	AccountID   int32
	Name        string
	Experience  int64
	Level       byte
	Model       byte
	PosX        float32
	PosZ        float32
	Health      int32
	Mana        int32
}

func (c CharacterInfo) Write(w *Writer) {
	w.WriteD(c.CharacterID)
	w.WriteD(c.AccountID)
	w.WriteS(c.Name)
	w.WriteQ(c.Experience)
	w.WriteC(c.Level)
	w.WriteC(c.Model)
	w.WriteF(c.PosX)
	w.WriteF(c.PosZ)
	w.WriteD(c.Health)
	w.WriteD(c.Mana)
}

func ReadCharacterInfo(r *Reader) CharacterInfo {
	return CharacterInfo{
		CharacterID: r.ReadD(),
		AccountID:   r.ReadD(),
		Name:        r.ReadS(),
		Experience:  r.ReadQ(),
		Level:       r.ReadC(),
		Model:       r.ReadC(),
		PosX:        r.ReadF(),
		PosZ:        r.ReadF(),
		Health:      r.ReadD(),
		Mana:        r.ReadD(),
	}
}
