// Package manifest builds transaction manifests and defines their wire
// representations.
//
//	instructions := manifest.NewBuilder().
//		CallMethod(account, "lock_fee", value.NewDecimal("10")).
//		CallMethod(faucet, "free_xrd").
//		TakeFromWorktopByAmount(1000, xrd, value.ID("xrd_bucket")).
//		CallMethod(account, "deposit", value.NewBucket(value.ID("xrd_bucket"))).
//		Build()
//
// A TransactionManifest carries its instructions either as text or as a
// parsed instruction list; the library converts between the two with the
// convert_manifest operation.
package manifest
