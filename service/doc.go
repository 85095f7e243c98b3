// Package service is the typed client of a transaction library.
//
// A Service loads the library with the engine package, keeps a pool of
// instances and exposes one method per exported operation:
//
//	svc, err := service.NewFromFile(ctx, "transaction_library.wasm", &service.Config{
//	    PoolSize:   4,
//	    MinVersion: ">= 0.5.0",
//	})
//	if err != nil {
//	    return err
//	}
//	defer svc.Close(ctx)
//
//	compiled, err := svc.CompileTransactionIntent(ctx, schema.CompileTransactionIntentRequest{Intent: intent})
//
// Requests are validated before they are sent unless Config.SkipValidation
// is set. Errors reported by the library come back as *errors.Error with
// Phase set to errors.PhaseRemote and the operation name as the first path
// element.
package service
