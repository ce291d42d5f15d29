// Package intake defines the event published for every accepted upload and
// the observer plumbing that fans it out.
package intake

// Event describes one accepted upload: when, from where, and what it carried.
type Event struct {
	Timestamp int64    `json:"ts"`
	Instance  string   `json:"instance,omitempty"`
	Count     int      `json:"count"`
	Names     []string `json:"names"`
	IPAddress string   `json:"ip_address"`
}
