package models

// Card is a stable reference to a card asset. ID is minted once when the
// asset enters the catalog; Src is the path clients load the image from.
type Card struct {
	ID  string `json:"id"`
	Src string `json:"src"`
}

const (
	BlankCardID = "asset:blank"
	BlankSrc    = "/assets/BLANK.png"
	FlippedSrc  = "/assets/FLIPPED.png"
)

// BlankCard is the sentinel handed out when a draw lands on a blank slot.
var BlankCard = Card{ID: BlankCardID, Src: BlankSrc}

// IsBlank reports whether c is the blank sentinel.
func (c Card) IsBlank() bool {
	return c.ID == BlankCardID
}

// IsZero reports whether c carries no identity.
func (c Card) IsZero() bool {
	return c.ID == ""
}
