// Package httputil provides retry helpers shared by the registry clients
// and the snapshot fetcher.
//
// # Retry
//
// [Retry] re-runs an operation that failed with a [RetryableError], doubling
// the delay after each attempt. [RetryConstant] keeps the delay fixed, which
// is what snapshot fetching uses (three attempts, one second apart):
//
//	err := httputil.RetryConstant(ctx, 3, time.Second, func() error {
//	    if err := fetch(); err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    return nil
//	})
//
// Errors that are not wrapped are returned immediately. Context
// cancellation during a wait returns ctx.Err().
package httputil
