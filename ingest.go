package annotate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-annotate/internal/hydrate"
	"github.com/goliatone/go-annotate/pkg/activity"
)

// Proposal is a question suggested by an AI pass.
type Proposal struct {
	ExternalID string     `json:"id"`
	Tipo       string     `json:"tipo,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Crops      []CropData `json:"crops"`
}

// IngestResult reports what Ingest did, by group id.
type IngestResult struct {
	Page    int
	Removed []int
	Matched []int
	Created []int
}

// Changed reports whether the ingest touched any group.
func (r IngestResult) Changed() bool {
	return len(r.Removed)+len(r.Matched)+len(r.Created) > 0
}

type proposalBatch struct {
	Questions []proposalPayload `json:"questions"`
}

type proposalPayload struct {
	ID      string          `json:"id"`
	Tipo    string          `json:"tipo,omitempty"`
	Tags    []string        `json:"tags,omitempty"`
	Regions []regionPayload `json:"regions"`
}

type regionPayload struct {
	Page   int            `json:"page"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Tipo   string         `json:"tipo,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

var proposalDecoder = hydrate.NewDecoder[proposalBatch](
	hydrate.WithPreHook[proposalBatch](repairProposalPayload),
	hydrate.WithPostHook[proposalBatch](validateProposalBatch),
)

// DecodeProposals converts an AI payload of the form
//
//	{"questions": [{"id": 6, "tipo": "...", "regions": [{"page": 2, "x": 0, ...}]}]}
//
// into proposals. Numeric ids become strings and regions without a page are
// placed on page.
func DecodeProposals(page int, payload map[string]any) ([]Proposal, error) {
	batch, err := proposalDecoder.Decode(hydrate.Context{Source: "proposals", Page: page}, payload)
	if err != nil {
		return nil, err
	}
	out := make([]Proposal, 0, len(batch.Questions))
	for _, question := range batch.Questions {
		proposal := Proposal{
			ExternalID: strings.TrimSpace(question.ID),
			Tipo:       question.Tipo,
			Tags:       question.Tags,
			Crops:      make([]CropData, 0, len(question.Regions)),
		}
		for _, region := range question.Regions {
			proposal.Crops = append(proposal.Crops, CropData{
				Anchor: Anchor{
					Page:   region.Page,
					X:      region.X,
					Y:      region.Y,
					Width:  region.Width,
					Height: region.Height,
					Meta:   region.Meta,
				},
				Tipo: region.Tipo,
			})
		}
		out = append(out, proposal)
	}
	return out, nil
}

func repairProposalPayload(ctx hydrate.Context, payload map[string]any) (map[string]any, error) {
	questions, _ := payload["questions"].([]any)
	for _, raw := range questions {
		question, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		question["id"] = stringifyID(question["id"])
		regions, _ := question["regions"].([]any)
		for _, rawRegion := range regions {
			region, ok := rawRegion.(map[string]any)
			if !ok {
				continue
			}
			if _, ok := region["page"]; !ok {
				region["page"] = ctx.Page
			}
		}
	}
	return payload, nil
}

func stringifyID(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<63 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

func validateProposalBatch(_ hydrate.Context, batch *proposalBatch) error {
	for i, question := range batch.Questions {
		if strings.TrimSpace(question.ID) == "" {
			return fmt.Errorf("%w: question %d", ErrProposalID, i)
		}
	}
	return nil
}

// Ingest merges AI proposals for page into the store. Stale AI drafts on
// the page are discarded first; manual groups are never removed. Each
// proposal is matched with FindGroupByExternalID semantics: a match gains
// the proposal crops, otherwise a new draft AI group tagged NOVO is
// appended. The active pointer only moves when the active group itself was
// a discarded draft. The whole ingest is a single undo step and a single
// notification.
func (s *Store) Ingest(page int, proposals []Proposal) IngestResult {
	start := s.cfg.now()
	before := s.Snapshot()
	result := IngestResult{Page: page}

	result.Removed = s.removeWhere(func(g *Group) bool {
		first, ok := g.FirstPage()
		return ok && first == page && g.Status == StatusDraft && g.Origin == OriginAI
	})

	for _, proposal := range proposals {
		idx := matchExternalID(s.groups, strings.TrimSpace(proposal.ExternalID))
		if idx >= 0 {
			result.Matched = append(result.Matched, s.groups[idx].ID)
		} else {
			group := s.appendGroup(GroupOptions{
				Origin:     OriginAI,
				ExternalID: proposal.ExternalID,
				Tipo:       proposal.Tipo,
				Tags:       append(append([]string(nil), proposal.Tags...), TagNew),
				Status:     StatusDraft,
			})
			idx = len(s.groups) - 1
			result.Created = append(result.Created, group.ID)
		}
		for _, crop := range proposal.Crops {
			s.appendCrop(idx, crop)
		}
	}

	if !result.Changed() {
		s.finish(start, LogEvent{Op: "ingest"}, activity.Event{})
		return result
	}
	s.history.Push(before)
	s.notify()
	s.finish(start, LogEvent{Op: "ingest", Changed: true},
		activity.BuildIngestEvent(activity.AnnotationEventInput{
			ActorID: s.cfg.actorID,
			Page:    page,
			Metadata: map[string]any{
				"removed": result.Removed,
				"matched": result.Matched,
				"created": result.Created,
			},
		}))
	return result
}
