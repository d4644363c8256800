// Package user holds the household's fixed user directory.
//
// The set of users is closed and known at build time. Nothing in the data
// store references a user table; events and push subscriptions carry a user
// ID that must resolve against this directory.
package user

// ID identifies a household member.
type ID string

const (
	Rino   ID = "rino"
	Iselin ID = "iselin"
	Fia    ID = "fia"
	Rakel  ID = "rakel"
	Hugo   ID = "hugo"
)

// User is a member of the household with the display colors used for
// their calendar entries.
type User struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	TextColor string `json:"textColor"`
}

var directory = []User{
	{ID: Rino, Name: "Rino", Color: "#22d3ee", TextColor: "#001016"},
	{ID: Iselin, Name: "Iselin", Color: "#f59e0b", TextColor: "#1f1300"},
	{ID: Fia, Name: "Fia", Color: "#a3e635", TextColor: "#132000"},
	{ID: Rakel, Name: "Rakel", Color: "#fb7185", TextColor: "#22040a"},
	{ID: Hugo, Name: "Hugo", Color: "#818cf8", TextColor: "#060c25"},
}
