package roles

// Complexity is static metadata describing the asymptotic cost of a
// RolesCache. k is the capacity.
type Complexity struct {
	Get   string `json:"get"`
	Set   string `json:"set"`
	Space string `json:"space"`
}

// CacheComplexity holds the costs of RolesCache: Get and Set relink a list
// node found through a map, and at most k entries are stored.
var CacheComplexity = Complexity{
	Get:   "O(1)",
	Set:   "O(1)",
	Space: "O(k)",
}

func (c Complexity) Map() map[string]string {
	return map[string]string{
		"get":   c.Get,
		"set":   c.Set,
		"space": c.Space,
	}
}
