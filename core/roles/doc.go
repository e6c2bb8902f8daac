// Package roles tracks the most recently used access roles of a single
// person together with the last message recorded for each role.
//
// A [RolesCache] holds at most k roles. Using a role that is not yet
// tracked while k roles are already active evicts the role that has gone
// longest without a [RolesCache.Get] or [RolesCache.Set].
//
//	c, err := roles.New[string](3)
//	if err != nil {
//	    return err
//	}
//	c.Set("admin", "login-ok")
//	if msg, ok := c.Get("admin"); ok {
//	    // admin is active, msg is its last message
//	}
//
// A miss is not an error: it means the role is not currently active.
//
// # Complexity
//
//	Get    O(1)
//	Set    O(1) amortized
//	Space  O(k)
//
// See [CacheComplexity].
//
// # Concurrency
//
// A RolesCache is owned by one caller and is not safe for concurrent use.
// Get mutates recency, so even readers must be serialized. The directory
// package serializes access per person.
package roles
