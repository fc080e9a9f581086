package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/sirupsen/logrus"
)

// Directory is a catalog backed by the on-disk deck layout:
//
//	<root>/<deck>/important/info.json
//	<root>/<deck>/cards/<card image>
//	<root>/<deck>/cards/<card name>.json   (optional rich card data)
type Directory struct {
	root   string
	logger *logrus.Logger
	snap   atomic.Pointer[snapshot]
}

type deckInfoFile struct {
	DeckName    string `json:"deckName"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// OpenDirectory loads the catalog rooted at root. A missing root yields an
// empty catalog.
func OpenDirectory(root string, logger *logrus.Logger) (*Directory, error) {
	d := &Directory{root: root, logger: logger}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload rescans the root and atomically swaps the served snapshot.
func (d *Directory) Reload() error {
	entries, err := os.ReadDir(d.root)
	if errors.Is(err, fs.ErrNotExist) {
		d.logger.Warnf("catalog: deck root %s does not exist, serving empty catalog", d.root)
		d.snap.Store(newSnapshot(nil, nil))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read deck root: %w", err)
	}

	var decks []DeckInfo
	data := map[string]map[string]any{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		deck, err := d.loadDeck(e.Name(), data)
		if err != nil {
			d.logger.Warnf("catalog: skipping deck %s: %v", e.Name(), err)
			continue
		}
		decks = append(decks, deck)
	}
	d.snap.Store(newSnapshot(decks, data))
	d.logger.Infof("catalog: loaded %d decks from %s", len(decks), d.root)
	return nil
}

func (d *Directory) loadDeck(name string, data map[string]map[string]any) (DeckInfo, error) {
	deck := DeckInfo{Name: name}

	raw, err := os.ReadFile(filepath.Join(d.root, name, "important", "info.json"))
	switch {
	case err == nil:
		var info deckInfoFile
		if err := json.Unmarshal(raw, &info); err != nil {
			return DeckInfo{}, fmt.Errorf("decode info.json: %w", err)
		}
		deck.Description = info.Description
		deck.Public = info.IsPublic
	case !errors.Is(err, fs.ErrNotExist):
		return DeckInfo{}, fmt.Errorf("read info.json: %w", err)
	}

	cardsDir := filepath.Join(d.root, name, "cards")
	files, err := os.ReadDir(cardsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return deck, nil
	}
	if err != nil {
		return DeckInfo{}, fmt.Errorf("read cards: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		card := models.Card{
			ID:  name + "/" + f.Name(),
			Src: path.Join("/decks", name, "cards", f.Name()),
		}
		deck.Cards = append(deck.Cards, card)

		meta := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())) + ".json"
		if raw, err := os.ReadFile(filepath.Join(cardsDir, meta)); err == nil {
			var m map[string]any
			if err := json.Unmarshal(raw, &m); err != nil {
				d.logger.Warnf("catalog: bad card data %s/%s: %v", name, meta, err)
				continue
			}
			data[card.ID] = m
		}
	}
	return deck, nil
}

func (d *Directory) Deck(name string) (DeckInfo, bool)         { return d.snap.Load().deck(name) }
func (d *Directory) PublicDecks() []DeckInfo                   { return d.snap.Load().publicDecks() }
func (d *Directory) TotalPublicCards() int                     { return d.snap.Load().publicTotal }
func (d *Directory) PublicCardAt(i int) (models.Card, bool)    { return d.snap.Load().publicCardAt(i) }
func (d *Directory) CardData(id string) (map[string]any, bool) { return d.snap.Load().cardData(id) }

// SamplePublic runs pick and the lookup against a single snapshot, so a
// concurrent Reload cannot shift the index between the two.
func (d *Directory) SamplePublic(pick func(int) int) (models.Card, bool) {
	return d.snap.Load().samplePublic(pick)
}
