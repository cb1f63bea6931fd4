package network

// Client -> server.
const (
	MsgTypeHeartbeat   = 1
	MsgTypeWatchScreen = 101
	MsgTypeClaimSeat   = 102
	MsgTypeReleaseSeat = 103
	MsgTypeSlotClick   = 201
	MsgTypeNavigate    = 202
	MsgTypeRandomPick  = 203
	MsgTypeSelectTeam  = 204
	MsgTypeStartMatch  = 205
	MsgTypeBack        = 206
	MsgTypeSetJoining  = 207
)

// Server -> client.
const (
	MsgTypeSnapshot           = 301
	MsgTypeDisplayUpdate      = 302
	MsgTypeUnlockMessage      = 303
	MsgTypeFighterSelected    = 304
	MsgTypeSelectionValidated = 305
	MsgTypeScreenClosed       = 306
	MsgTypeButtonState        = 307
	MsgTypeSelectionReverted  = 308
	MsgTypeError              = 399
)
