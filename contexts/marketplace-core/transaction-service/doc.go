// Package transactionservice owns the purchase-to-payout lifecycle: the
// commission split frozen at creation, the escrow hold and its timed or
// manual release, code-delivery gating, and the refund/dispute escape
// hatches. Settlement events are committed to an outbox alongside the state
// change and relayed to the message bus by the worker.
package transactionservice
