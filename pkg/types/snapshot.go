package types

// StateSnapshot:
//   version: number
//   state:
//     players_shown: number
//     formation: { id: string, requires: string }[]
//     participants: {
//       id, name, budget,
//       inventory: { name, position, tier, price }[],
//       roster: { [slot]: item_index },
//       bench: { index, item }[],
//       slot_candidates: { [slot]: item_index[] }
//     }[]
//     round?: {
//       offer: { name, position, tier, club, league, era, market_value, dynamic_value, trend, remaining },
//       leader?: { participant_id, participant_name, amount, placed_at },
//       minimum_bid, history: Bid[],
//       current_id, current_name, remaining, turn_seconds,
//       state: "idle"|"running"|"paused"
//     }
//   events: { type, participant_id?, item?, slot?, amount?, remaining?, reason? }[]
