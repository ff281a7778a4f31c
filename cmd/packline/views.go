package main

import (
	"packline/internal/domain"
	"packline/internal/store"
)

type batchView struct {
	ID           int64  `json:"id"`
	Traceability string `json:"traceability"`
	Display      string `json:"display"`
	Lot          string `json:"lot"`
	State        string `json:"state"`
	CreatedAt    string `json:"created_at"`
}

func newBatchView(b domain.Batch) batchView {
	return batchView{
		ID:           b.ID,
		Traceability: b.TraceabilityCode,
		Display:      b.DisplayCode(),
		Lot:          b.LotCode,
		State:        string(b.State),
		CreatedAt:    formatTime(b.CreatedAt),
	}
}

type boxView struct {
	ID           int64  `json:"id"`
	BatchID      int64  `json:"batch_id"`
	Number       int    `json:"number"`
	State        string `json:"state"`
	Pieces       int    `json:"pieces"`
	Weight       string `json:"weight"`
	ClosedWeight string `json:"closed_weight,omitempty"`
	ClosedAt     string `json:"closed_at,omitempty"`
}

func newBoxView(b domain.Box) boxView {
	view := boxView{
		ID:      b.ID,
		BatchID: b.BatchID,
		Number:  b.Number,
		State:   string(b.State),
		Pieces:  b.PieceCount,
		Weight:  formatWeight(b.AccumulatedWeight),
	}
	if b.ClosedWeight != nil {
		view.ClosedWeight = formatWeight(*b.ClosedWeight)
	}
	if b.ClosedAt != nil {
		view.ClosedAt = formatTime(*b.ClosedAt)
	}
	return view
}

type pieceView struct {
	ID         int64  `json:"id"`
	BoxID      int64  `json:"box_id"`
	Sequence   int    `json:"sequence"`
	Product    string `json:"product_code"`
	Name       string `json:"product_name"`
	Species    string `json:"species"`
	Weight     string `json:"weight"`
	CapturedAt string `json:"captured_at"`
}

func newPieceView(p domain.Piece) pieceView {
	return pieceView{
		ID:         p.ID,
		BoxID:      p.BoxID,
		Sequence:   p.Sequence,
		Product:    p.ProductCode,
		Name:       p.ProductName,
		Species:    p.Species,
		Weight:     formatWeight(p.Weight),
		CapturedAt: formatTime(p.CapturedAt),
	}
}

type productView struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Species string `json:"species"`
	State   string `json:"state"`
}

func newProductView(p domain.Product) productView {
	return productView{Code: p.Code, Name: p.Name, Species: p.Species, State: string(p.State)}
}

type summaryView struct {
	Batch       batchView `json:"batch"`
	TotalBoxes  int       `json:"total_boxes"`
	OpenBoxes   int       `json:"open_boxes"`
	ClosedBoxes int       `json:"closed_boxes"`
	Pieces      int       `json:"pieces"`
	TotalWeight string    `json:"total_weight"`
	Boxes       []boxView `json:"boxes"`
}

func newSummaryView(s store.BatchSummary, boxes []domain.Box) summaryView {
	view := summaryView{
		Batch:       newBatchView(s.Batch),
		TotalBoxes:  s.TotalBoxes,
		OpenBoxes:   s.OpenBoxes,
		ClosedBoxes: s.ClosedBoxes,
		Pieces:      s.PieceCount,
		TotalWeight: formatWeight(s.TotalWeight),
		Boxes:       make([]boxView, 0, len(boxes)),
	}
	for _, b := range boxes {
		view.Boxes = append(view.Boxes, newBoxView(b))
	}
	return view
}
