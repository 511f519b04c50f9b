package course

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Block is a node of the course content tree as returned by the LMS blocks API.
// The tree has exactly 4 named levels above content blocks:
// course > chapter > sequential > vertical > leaf.
type Block struct {
	ID             string   `json:"id"`
	BlockID        string   `json:"block_id"`
	DisplayName    string   `json:"display_name"`
	Type           string   `json:"type"`
	Children       []string `json:"children"`
	StudentViewURL string   `json:"student_view_url"`
	LMSWebURL      string   `json:"lms_web_url"`
}

// IsLeaf reports whether the block is a terminal content block.
// An absent children list and an empty one both mark a leaf.
func (b Block) IsLeaf() bool {
	return len(b.Children) == 0
}

// ParseBlocks decodes a raw LMS payload of the form {"blocks": {<id>: {...}}}.
// The blocks object is walked token by token so that the document order of the
// entries is preserved; map-based decoding would randomize it.
func ParseBlocks(r io.Reader) ([]Block, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, errors.Wrap(err, "parsing blocks payload")
	}

	var blocks []Block
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "parsing blocks payload")
		}
		key, _ := tok.(string)
		if key != "blocks" {
			var skip json.RawMessage
			if err = dec.Decode(&skip); err != nil {
				return nil, errors.Wrapf(err, "skipping %q", key)
			}
			continue
		}

		if err = expectDelim(dec, '{'); err != nil {
			return nil, errors.Wrap(err, "parsing blocks object")
		}
		for dec.More() {
			idTok, err := dec.Token()
			if err != nil {
				return nil, errors.Wrap(err, "parsing block id")
			}
			var blk Block
			if err = dec.Decode(&blk); err != nil {
				return nil, errors.Wrap(err, "parsing block")
			}
			if blk.ID == "" {
				blk.ID, _ = idTok.(string)
			}
			blocks = append(blocks, blk)
		}
		if _, err = dec.Token(); err != nil { // closing brace
			return nil, errors.Wrap(err, "parsing blocks object")
		}
	}
	return blocks, nil
}

// ParseBlocksString is a convenience wrapper over ParseBlocks for raw API bodies.
func ParseBlocksString(body string) ([]Block, error) {
	return ParseBlocks(strings.NewReader(body))
}

func expectDelim(dec *json.Decoder, d rune) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != json.Delim(d) {
		return errors.Errorf("expected %q, got %v", d, tok)
	}
	return nil
}

// StructureRow is the flattened form of one leaf block: the leaf itself plus
// its full 4-level ancestor chain. All *_number fields are 1-based sibling
// positions taken from the parent's children order.
type StructureRow struct {
	Course           string `json:"course"`
	CourseName       string `json:"course_name"`
	Chapter          string `json:"chapter"`
	ChapterName      string `json:"chapter_name"`
	ChapterNumber    int    `json:"chapter_number"`
	Sequential       string `json:"sequential"`
	SequentialName   string `json:"sequential_name"`
	SequentialNumber int    `json:"sequential_number"`
	Vertical         string `json:"vertical"`
	VerticalName     string `json:"vertical_name"`
	VerticalNumber   int    `json:"vertical_number"`
	ID               string `json:"id"`
	ChildNumber      int    `json:"child_number"`
	Type             string `json:"type"`
	StudentViewURL   string `json:"student_view_url"`
	LMSWebURL        string `json:"lms_web_url"`
}

// Vertical is the persisted counterpart of a StructureRow. Rows are written
// by the batch ingest and read-only afterwards, except on full re-ingest.
type Vertical struct {
	ID               string    `json:"id"`
	Course           string    `json:"course"`
	CourseName       string    `json:"course_name"`
	Chapter          string    `json:"chapter"`
	ChapterName      string    `json:"chapter_name"`
	ChapterNumber    int       `json:"chapter_number"`
	Sequential       string    `json:"sequential"`
	SequentialName   string    `json:"sequential_name"`
	SequentialNumber int       `json:"sequential_number"`
	Vertical         string    `json:"vertical"`
	VerticalName     string    `json:"vertical_name"`
	VerticalNumber   int       `json:"vertical_number"`
	BlockID          string    `json:"block_id"`
	BlockType        string    `json:"block_type"`
	ChildNumber      int       `json:"child_number"`
	StudentViewURL   string    `json:"student_view_url"`
	LMSWebURL        string    `json:"lms_web_url"`
	CreatedAt        time.Time `json:"created_at"` // UTC
}

// NewVertical maps a reconstructed row 1:1 into the persisted entity.
func NewVertical(row StructureRow) Vertical {
	return Vertical{
		Course:           row.Course,
		CourseName:       row.CourseName,
		Chapter:          row.Chapter,
		ChapterName:      row.ChapterName,
		ChapterNumber:    row.ChapterNumber,
		Sequential:       row.Sequential,
		SequentialName:   row.SequentialName,
		SequentialNumber: row.SequentialNumber,
		Vertical:         row.Vertical,
		VerticalName:     row.VerticalName,
		VerticalNumber:   row.VerticalNumber,
		BlockID:          row.ID,
		BlockType:        row.Type,
		ChildNumber:      row.ChildNumber,
		StudentViewURL:   row.StudentViewURL,
		LMSWebURL:        row.LMSWebURL,
		CreatedAt:        time.Now().UTC(),
	}
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == ""
}
