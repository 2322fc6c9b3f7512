// Package asyncvalue provides Value, a reactive cell holding the latest
// result of an asynchronous producer.
//
// A Value starts evaluating when it is first observed: read by a reactive
// listener, held by Observe, or awaited with Wait. Signals the producer reads
// on its own goroutine become dependencies, and a change to any of them, or
// a call to Refresh, starts a new evaluation. Only the most recently started
// evaluation may commit; an older one's context is cancelled and its result
// dropped.
//
// Producers compose other values with Use:
//
//	user := asyncvalue.New(fetchUser, User{})
//	orders := asyncvalue.New(func(ctx context.Context) ([]Order, error) {
//	    u, err := asyncvalue.Use(ctx, user)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return fetchOrders(ctx, u.ID)
//	}, nil)
//
// While user is loading, Use returns ErrStillLoading and orders stays
// loading until user settles.
//
// When the last observer goes away the evaluation stops, unless the value
// was created with KeepAlive.
package asyncvalue
