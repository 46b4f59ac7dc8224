package types

// Snapshot:
//   seq: number            // last applied mutation
//   room_code: string
//   status: "waiting" | "in_progress" | "completed" | "failed"
//   protocol: "auction" | "snake_draft"
//   teams: [{id, name, captain_id, capacity, budget, members: [Player]}]
//   pool: [Player]         // players still unassigned
//   engine:                // variant-specific, keyed by protocol:
//     auction:     {nomination_queue, current_player, high_bid, high_bidder, no_bid_cycles, unassigned}
//     snake_draft: {pick_order, pick_index}
//   deadline_unix_ms: number // absolute; clients derive remaining time locally
//   remaining_ms: number
//
// Delta:
//   seq: number
//   event: {type, team, player, amount, auto, cycles}
//     type: PLAYER_NOMINATED | BID_PLACED | PLAYER_AWARDED | PLAYER_PASSED |
//           PLAYER_UNASSIGNED | PICK_MADE | TIMER_RESET | SESSION_COMPLETE |
//           SESSION_FAILED
//   deadline_unix_ms, remaining_ms: only on TIMER_RESET
//
// Reconciliation: take the join snapshot at seq N, then apply every delta with
// seq > N in order; discard buffered deltas with seq <= N.
