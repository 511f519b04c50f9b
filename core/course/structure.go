package course

// StructureReport accounts for the leaves excluded from a flattening pass.
// A leaf is dropped when its ancestor chain does not resolve through exactly
// 4 levels up to a root block; callers are expected to log the count.
type StructureReport struct {
	Dropped    int
	DroppedIDs []string
}

func (r *StructureReport) drop(id string) {
	r.Dropped++
	r.DroppedIDs = append(r.DroppedIDs, id)
}

// link records a block's parent along with the block's 1-based position among
// its siblings in the parent's children list.
type link struct {
	parent string
	number int
}

// FlattenAsVerticals rebuilds the course/chapter/sequential/vertical hierarchy
// from a flat block list and emits one StructureRow per leaf block.
//
// A single child->parent adjacency map is built from every parent's ordered
// children list, then each leaf is walked up exactly 4 levels with direct
// lookups. The walk must end on a root block (one that is nobody's child);
// leaves whose chain is shorter, longer or broken are reported, not silently
// lost. Output preserves the input order of the leaves.
func FlattenAsVerticals(blocks []Block) ([]StructureRow, StructureReport) {
	names := make(map[string]string, len(blocks))
	adjacency := make(map[string]link)
	var leaves []Block

	for _, blk := range blocks {
		names[blk.ID] = blk.DisplayName
		if blk.IsLeaf() {
			leaves = append(leaves, blk)
			continue
		}
		for i, childID := range blk.Children {
			adjacency[childID] = link{parent: blk.ID, number: i + 1}
		}
	}

	var report StructureReport
	rows := make([]StructureRow, 0, len(leaves))
	for _, leaf := range leaves {
		leafLink, ok := adjacency[leaf.ID]
		if !ok {
			// unattached block; the course root itself lands here too when it
			// has no children at all
			report.drop(leaf.ID)
			continue
		}
		verticalLink, ok := adjacency[leafLink.parent]
		if !ok {
			report.drop(leaf.ID)
			continue
		}
		sequentialLink, ok := adjacency[verticalLink.parent]
		if !ok {
			report.drop(leaf.ID)
			continue
		}
		chapterLink, ok := adjacency[sequentialLink.parent]
		if !ok {
			report.drop(leaf.ID)
			continue
		}
		courseID := chapterLink.parent
		if _, hasParent := adjacency[courseID]; hasParent {
			// deeper than 4 levels; the top of the chain is not the course root
			report.drop(leaf.ID)
			continue
		}

		rows = append(rows, StructureRow{
			Course:           courseID,
			CourseName:       names[courseID],
			Chapter:          sequentialLink.parent,
			ChapterName:      names[sequentialLink.parent],
			ChapterNumber:    chapterLink.number,
			Sequential:       verticalLink.parent,
			SequentialName:   names[verticalLink.parent],
			SequentialNumber: sequentialLink.number,
			Vertical:         leafLink.parent,
			VerticalName:     names[leafLink.parent],
			VerticalNumber:   verticalLink.number,
			ID:               leaf.ID,
			ChildNumber:      leafLink.number,
			Type:             leaf.Type,
			StudentViewURL:   leaf.StudentViewURL,
			LMSWebURL:        leaf.LMSWebURL,
		})
	}
	return rows, report
}
