package types

// Client -> Server
// Register:
//   name: string
//   budget?: decimal string, defaults to the starting budget
//
// Deregister:
//   participant_id: number
//
// OfferNext:
//   filter: { era?, league?, position?: "GK"|"DEF"|"MID"|"FWD", tier?, clubs?: string[] }
//
// PlaceBid:
//   participant_id: number  // must hold the turn
//   amount: decimal string
//
// Pass | Pause | Resume | TogglePause | SellNow | CancelRound | Reset | Reload: {}
//
// Move:
//   participant_id: number
//   item_index: number      // required
//   slot: "gk"|"lb"|"cb1"|"cb2"|"rb"|"cdm"|"cm1"|"cm2"|"lw"|"st"|"rw"
//
// RemoveFromSlot:
//   participant_id: number
//   slot: string
//
// Autofill | SellItem:
//   participant_id: number
//   item_index: number      // required, a missing index is a validation error

// Server -> Client
// StateSnapshot: see snapshot.go
//
// Error:
//   code: "validation"|"not_found"|"no_bids"|"insufficient_funds"|"no_empty_slot"|"supply_exhausted"|"unsupported_command"|"bad_request"
//   error: string

// HTTP
// POST   /lobbies                  -> { code }
// GET    /lobbies                  -> { lobbies: string[] }
// GET    /lobbies/{code}           -> { code, version, num_clients, state }
// POST   /lobbies/{code}/commands  body: any Client -> Server message, same reply as GET
// DELETE /lobbies/{code}
// GET    /ws?code={code}           websocket, StateSnapshot and Error frames
//
// GET /api/players         ?era&league&position&tier&club&exclude -> Player[]
// GET /api/players/random  same filters -> { player, remaining } | 404 { message }
// GET /api/players/count   same filters -> { count }
// GET /api/meta/clubs      -> string[]
