// Package directory keeps one roles cache per person and makes them safe
// to use from concurrent requests.
//
// Each person gets a [roles.RolesCache] on first use. All operations for a
// person run one at a time on that person's worker (see package perkey);
// different persons never wait on each other.
//
//	dir, err := directory.New[string](directory.Options{Capacity: 3})
//	if err != nil {
//	    return err
//	}
//	defer dir.Close()
//
//	_ = dir.Use(ctx, "alice", "admin", "login-ok")
//	msg, ok, err := dir.Lookup(ctx, "alice", "admin")
//
// A person's cache lives until [Directory.Forget] is called for that
// person.
package directory
