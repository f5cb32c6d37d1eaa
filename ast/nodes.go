package ast

// Option sets a ledger-wide configuration parameter.
//
// Example:
//
//	option "title" "Personal Ledger"
//	option "operating_currency" "USD"
type Option struct {
	Pos   Position
	Name  string
	Value string
}

func (o *Option) Position() Position { return o.Pos }

// Include imports directives from another Beancount file. The path can be
// absolute or relative to the file containing the include.
//
// Example:
//
//	include "transactions/2014.beancount"
type Include struct {
	Pos      Position
	Filename string
}

func (i *Include) Position() Position { return i.Pos }

// Plugin declares a processing plugin to run over the parsed ledger, with an
// optional configuration string. The plugin runner resolves these names
// against its registry.
//
// Example:
//
//	plugin "file_ordering"
//	plugin "no_missing_documents" "receipt,statement,invoice"
type Plugin struct {
	Pos    Position
	Name   string
	Config string
}

func (p *Plugin) Position() Position { return p.Pos }

// Pushtag pushes a tag onto the tag stack; subsequent transactions in the
// file receive it until the matching poptag.
//
// Example:
//
//	pushtag #trip-europe
type Pushtag struct {
	Pos Position
	Tag Tag
}

func (p *Pushtag) Position() Position { return p.Pos }

// Poptag removes a tag from the tag stack.
type Poptag struct {
	Pos Position
	Tag Tag
}

func (p *Poptag) Position() Position { return p.Pos }

// Pushmeta pushes a metadata key-value pair onto the metadata stack;
// subsequent directives receive it until the matching popmeta.
//
// Example:
//
//	pushmeta location: "New York, NY"
type Pushmeta struct {
	Pos   Position
	Key   string
	Value string
}

func (p *Pushmeta) Position() Position { return p.Pos }

// Popmeta removes a metadata key from the metadata stack.
type Popmeta struct {
	Pos Position
	Key string
}

func (p *Popmeta) Position() Position { return p.Pos }
