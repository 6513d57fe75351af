// Package interaction runs TWT vendor command transactions.
//
// A transaction sends one encoded request and reads replies until the
// first terminal one:
//
//   - ACK or FINISH completes the transaction successfully
//   - ERROR fails it with the carried errno
//   - DATA replies are handed to the request's DecodeFunc, whose output
//     accumulates in the transaction
//
// # Usage
//
//	engine := interaction.NewEngine(transport, interaction.DefaultConfig())
//
//	txn, err := engine.Execute(ctx, interaction.Request{
//	    Op:      twt.OpGetStats,
//	    Payload: payload,
//	    Decode:  func(b []byte, w *twt.ReplyWriter) (int, error) {
//	        return twt.DecodeReply(twt.OpGetStats, b, w)
//	    },
//	})
//
// A decode failure does not stop the pump: the remaining replies are
// drained and the transaction fails once the terminal reply arrives.
// Transport failures are reported as *TransportError and never retried.
package interaction
