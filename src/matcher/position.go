package matcher

import (
	"time"

	"github.com/shopspring/decimal"

	"tradeledger/src/model"
)

type lot struct {
	remaining  int64
	price      decimal.Decimal
	commission decimal.Decimal
	fillIDs    []string
	openedAt   time.Time
}

func newLot(f model.Fill, quantity int64, commission decimal.Decimal) *lot {
	var ids []string
	if f.FillID != "" {
		ids = []string{f.FillID}
	}
	return &lot{
		remaining:  quantity,
		price:      f.Price,
		commission: commission,
		fillIDs:    ids,
		openedAt:   f.Timestamp,
	}
}

// position is the open state of one partition. It never holds zero quantity;
// the partition drops it when the last lot is consumed.
type position struct {
	side       model.PositionSide
	lots       []*lot
	quantity   int64
	avgPrice   decimal.Decimal
	commission decimal.Decimal
	peak       int64
}

func newPosition(side model.PositionSide, l *lot) *position {
	p := &position{side: side}
	p.push(l)
	return p
}

func (p *position) push(l *lot) {
	p.lots = append(p.lots, l)
	p.recompute()
}

// next returns the index of the lot an opposing fill consumes first.
func (p *position) next(order LotOrder) int {
	if order == LotOrderLIFO {
		return len(p.lots) - 1
	}
	return 0
}

func (p *position) remove(i int) {
	p.lots = append(p.lots[:i], p.lots[i+1:]...)
}

func (p *position) recompute() {
	var (
		quantity   int64
		value      decimal.Decimal
		commission decimal.Decimal
	)
	for _, l := range p.lots {
		quantity += l.remaining
		value = value.Add(l.price.Mul(decimal.NewFromInt(l.remaining)))
		commission = commission.Add(l.commission)
	}
	p.quantity = quantity
	p.commission = commission
	p.avgPrice = decimal.Zero
	if quantity > 0 {
		p.avgPrice = value.Div(decimal.NewFromInt(quantity))
	}
	if quantity > p.peak {
		p.peak = quantity
	}
}

// share returns the part of total that belongs to part out of whole units.
func share(total decimal.Decimal, part, whole int64) decimal.Decimal {
	if part >= whole {
		return total
	}
	return total.Mul(decimal.NewFromInt(part)).Div(decimal.NewFromInt(whole))
}
