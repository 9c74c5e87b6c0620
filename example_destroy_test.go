package settee_test

import (
	"context"
	"fmt"

	"github.com/setteedb/settee"
	"github.com/setteedb/settee/pkg/replication"
)

// A store destroys its backend only after a live replication session
// has wound down.
func ExampleStore_Destroy() {
	ctx := context.Background()

	store, err := settee.OpenURL(ctx, "memory:")
	if err != nil {
		panic(err)
	}

	sess := replication.NewSession()
	store.AttachSession(sess)

	// A stand-in replicator: it stops when cancelled and reports
	// completion.
	go func() {
		<-sess.Cancelled()
		fmt.Println("replication wound down")
		sess.Complete(replication.Info{})
	}()

	if _, err := store.Destroy(ctx).Await(ctx); err != nil {
		panic(err)
	}
	fmt.Println("database destroyed")
	// Output:
	// replication wound down
	// database destroyed
}
