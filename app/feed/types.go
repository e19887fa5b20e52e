package feed

// Disclosure feed types

type Item struct {
	ID       string // Stable identifier assigned by the upstream feed
	Title    string
	URL      string
	Program  string // Owning program or team handle, may be empty
	Severity string // Upstream severity rating, may be empty

	PreviewText string // Optional extracted summary, populated before delivery
}
