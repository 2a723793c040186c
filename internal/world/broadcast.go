package world

import "github.com/FeXyK/Authory/internal/wire"

// NopBroadcaster discards every event. Offline tooling and simulations
// without connected clients embed it and override what they need.
type NopBroadcaster struct{}

func (NopBroadcaster) SendEntityUpdate(Combatant)                             {}
func (NopBroadcaster) SendFullEntityUpdate(Combatant)                         {}
func (NopBroadcaster) SendAttributeUpdate(Combatant)                          {}
func (NopBroadcaster) SendMovementSpeed(Combatant)                            {}
func (NopBroadcaster) SendTeleport(Combatant)                                 {}
func (NopBroadcaster) SendMobMovement(Combatant)                              {}
func (NopBroadcaster) SendDeath(Combatant)                                    {}
func (NopBroadcaster) SendRespawn(Combatant)                                  {}
func (NopBroadcaster) SendPlayerRespawn(*Player)                              {}
func (NopBroadcaster) SendDamageInfo(Combatant, Combatant, int, School, bool) {}
func (NopBroadcaster) SendCasting(Combatant)                                  {}
func (NopBroadcaster) SendSkillCast(*Skill)                                   {}
func (NopBroadcaster) SendSkillCastAt(*Skill, Combatant)                      {}
func (NopBroadcaster) SendSkillInterrupt(Combatant, SkillID)                  {}
func (NopBroadcaster) SendBuffApply(Combatant, *Buff)                         {}
func (NopBroadcaster) SendBuffRefresh(Combatant, *Buff)                       {}
func (NopBroadcaster) SendBuffRemove(Combatant, *Buff)                        {}
func (NopBroadcaster) SendSystemInfo(*Player, wire.SystemMsg)                 {}
func (NopBroadcaster) SendLevelUp(*Player)                                    {}
func (NopBroadcaster) SendLevelUpInfo(*Player)                                {}
func (NopBroadcaster) SendExperienceInfo(*Player)                             {}
func (NopBroadcaster) SendPositionCorrection(*Player)                         {}
func (NopBroadcaster) SendGridEntities(*Player)                               {}
func (NopBroadcaster) SendGridResources(*Player)                              {}
func (NopBroadcaster) SendMapChangeRequest(*Player, int32)                    {}
