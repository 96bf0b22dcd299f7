package signature

import (
	"context"
	"fmt"

	"github.com/sarabun/docflow/internal/annotation"
)

// Stamp rendering reuses the annotation pipeline: each signer mark becomes
// a text object in the page's pixel space, so marks and markup share one
// coordinate space end to end.

const (
	stampFontSize = 14.0
	stampWidth    = 180.0
)

// StampSnapshots builds page-keyed scene snapshots carrying one text mark
// per position, sized by the same page sizer the editor uses.
func StampSnapshots(ctx context.Context, positions []Position, sizer annotation.PageSizer) (map[int]*annotation.Snapshot, error) {
	scenes := make(map[int]*annotation.Scene)
	for _, pos := range positions {
		scene, ok := scenes[pos.Page]
		if !ok {
			width, height, err := sizer.PixelSize(ctx, pos.Page)
			if err != nil {
				return nil, fmt.Errorf("failed to size page %d for stamping: %w", pos.Page, err)
			}
			scene, err = annotation.NewScene(pos.Page, width, height)
			if err != nil {
				return nil, err
			}
			scenes[pos.Page] = scene
		}
		scene.Add(&annotation.TextBox{
			ObjectID: annotation.NewObjectID(),
			X:        pos.X,
			Y:        pos.Y,
			Width:    stampWidth,
			Text:     fmt.Sprintf("%s\n%s", pos.SignerName, pos.SignerRole),
			FontSize: stampFontSize,
			Color:    annotation.Color{R: 0x1a, G: 0x1a, B: 0x6e, A: 0xff},
		})
	}

	snaps := make(map[int]*annotation.Snapshot, len(scenes))
	for page, scene := range scenes {
		snap, err := scene.Snapshot()
		if err != nil {
			return nil, err
		}
		snaps[page] = snap
	}
	return snaps, nil
}
