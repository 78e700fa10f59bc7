package merge

import (
	"github.com/c0deZ3R0/go-note-merge/model"
)

// MediaResult is a merged media list.
type MediaResult struct {
	Media []model.Media
	Stats Stats
}

var mediaList = listSpec[model.Media]{
	scope: model.ScopeMedia,
	id:    model.Media.ID,
	insertion: func(d model.Diff) (model.Media, int, bool) {
		if ins, ok := d.(model.MediaInsertion); ok {
			return ins.Media, ins.Index, true
		}
		return model.Media{}, 0, false
	},
	deletion: func(d model.Diff) bool {
		_, ok := d.(model.MediaDeletion)
		return ok
	},
	update: updateMedia,
}

// MergeMedia reconciles a note's media list. Besides insertions and
// deletions, each mutable field merges independently: primary's update
// wins, then secondary's. Diffs for media the base does not hold are
// ignored.
func (m *Merger) MergeMedia(base []model.Media, primary, secondary []model.Diff) MediaResult {
	r := m.newRun()
	p, _ := model.Partition(primary, inScope(model.ScopeMedia))
	s, _ := model.Partition(secondary, inScope(model.ScopeMedia))
	media := mergeList(r, mediaList, base, p, s)
	return MediaResult{Media: media, Stats: r.stats}
}

// MergeMedia runs the default Merger.
func MergeMedia(base []model.Media, primary, secondary []model.Diff) MediaResult {
	return defaultMerger().MergeMedia(base, primary, secondary)
}

func updateMedia(item model.Media, primary, secondary []model.Diff) model.Media {
	// Secondary first so primary's value lands last.
	for _, diffs := range [][]model.Diff{secondary, primary} {
		var (
			remoteID, localURL, mimeType, altText, dims, modified bool
		)
		for _, d := range diffs {
			switch u := d.(type) {
			case model.MediaUpdateRemoteID:
				if !remoteID {
					item.RemoteID, remoteID = u.RemoteID, true
				}
			case model.MediaUpdateLocalURL:
				if !localURL {
					item.LocalURL, localURL = u.LocalURL, true
				}
			case model.MediaUpdateMimeType:
				if !mimeType {
					item.MimeType, mimeType = u.MimeType, true
				}
			case model.MediaUpdateAltText:
				if !altText {
					item.AltText, altText = u.AltText, true
				}
			case model.MediaUpdateImageDimensions:
				if !dims {
					item.ImageDimensions, dims = u.ImageDimensions, true
				}
			case model.MediaUpdateLastModified:
				if !modified {
					item.LastModified, modified = u.LastModified, true
				}
			case model.MediaInsertion, model.MediaDeletion:
				// structural, handled by mergeList
			}
		}
	}
	return item
}

func inScope(scope model.Scope) func(model.Diff) bool {
	return func(d model.Diff) bool { return d.Scope() == scope }
}
