// Package wire defines the binary message codec shared by the game
// nodes, the master server and the clients. Every message starts with
// a single type byte; all multi-byte fields are little-endian.
package wire

// MsgType identifies a game-channel message. Values are part of the
// client protocol and must not be renumbered.
type MsgType byte

const (
	MsgDisconnect MsgType = 2

	MsgPlayerMovement        MsgType = 10
	MsgMobMovementToPosition MsgType = 12
	MsgMovementSpeed         MsgType = 13
	MsgPositionCorrection    MsgType = 14
	MsgAction                MsgType = 15

	MsgMobTargetInfo   MsgType = 17
	MsgClearTargetInfo MsgType = 18

	MsgLevelUp MsgType = 20

	MsgTeleport MsgType = 50

	MsgGridResourceEntityFullUpdate MsgType = 59
	MsgGridFullEntityUpdate         MsgType = 60
	MsgMobRespawn                   MsgType = 65

	MsgAttributeUpdate MsgType = 70

	MsgPlayerID MsgType = 103

	MsgPlayerUpdate     MsgType = 104
	MsgFullEntityUpdate MsgType = 105
	MsgMobUpdate        MsgType = 106
	MsgDeath            MsgType = 107

	MsgDamageInfo MsgType = 108

	MsgSkillInterrupt               MsgType = 109
	MsgCasting                      MsgType = 110
	MsgSkillInfo                    MsgType = 111
	MsgSkillInfoAlternativePosition MsgType = 112
	MsgSkillRequest                 MsgType = 113
	MsgSkillRequestRawPosition      MsgType = 114

	MsgBuffApply   MsgType = 115
	MsgBuffRefresh MsgType = 116
	MsgBuffRemove  MsgType = 117

	MsgUpdateMaxExperience MsgType = 249
	MsgUpdateExperience    MsgType = 250
	MsgRespawn             MsgType = 253

	MsgSystemInfo MsgType = 254
	MsgInteract   MsgType = 255
)

// MasterMsgType identifies a message on the master channel, spoken
// between clients, nodes and the master server.
type MasterMsgType byte

const (
	MasterGlobalChat MasterMsgType = iota
	MasterWorldChat
	MasterPrivateChat

	MasterNewServerConnection
	MasterNewAccountConnection

	MasterServerConnectionRequest
	MasterConnectionApproved
	MasterCharacterInfo
	MasterSuccessfulConnection

	MasterRequestMaps
	MasterRemoveMaps
	MasterNewNodeConnection
	MasterMapsCreated
	MasterRequestMap
	MasterRemoveMap
	MasterMapsRemoved
	MasterMapCreated

	MasterChannelInfo
	MasterChannelSwitchRequest
	MasterRequestCharacterInfo
	MasterCharacterNotFound

	MasterCreateCharacter
	MasterDeleteCharacter
	MasterRefreshCharacterList
	MasterRefreshMapList
	MasterInformation
	MasterMapChangeRequest
	MasterLoadReport
	MasterShutdown
)

// SystemMsg is a one-byte notice the client renders as predefined text.
type SystemMsg byte

const (
	SysOutOfRange           SystemMsg = 0
	SysNotEnoughMana        SystemMsg = 1
	SysYouAreDead           SystemMsg = 2
	SysLoginFailed          SystemMsg = 100
	SysInvalidCharacterName SystemMsg = 101
	SysNoChannelAvailable   SystemMsg = 102
)

// ActionType describes a visible entity action.
type ActionType byte

const (
	ActionIdle   ActionType = 0
	ActionPathTo ActionType = 1
	ActionWalk   ActionType = 4
	ActionRun    ActionType = 5
	ActionJump   ActionType = 10
)

// MaxChunkPayload bounds the body of chunked full-update messages.
// Larger snapshots are split across several messages.
const MaxChunkPayload = 1000
