package store

const (
	KeySequence      = "seq:%s"
	KeyUser          = "user:%d"
	KeyUserByName    = "user:name:%s"
	KeyRoom          = "room:%d"
	KeyRoomByInvite  = "room:invite:%s"
	KeyRoomMatch     = "room:%d:match"
	KeyCardTemplates = "catalog:templates"
	KeyMatch         = "match:%d"
	KeyMatchPlayers  = "match:%d:players"
	KeyMatchDeck     = "match:%d:deck"
	KeyMatchRounds   = "match:%d:rounds"
	KeyRound         = "round:%d"
	KeyRoundCards    = "round:%d:cards"
	KeyRoundActions  = "round:%d:actions"
	KeyRoundLock     = "lock:round:%d"
	KeyMatchLock     = "lock:match:%d"
)
