package billing

import (
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	owner     uuid.UUID
	card      models.Creditor
	friend    models.Creditor
	store     models.Creditor
	purchases []models.Purchase
	creditors Creditors
}

func (f *fixture) add(p models.Purchase, c models.Creditor) models.Purchase {
	p.OwnerID = f.owner
	id := c.ID
	p.CreditorID = &id
	f.purchases = append(f.purchases, p)
	return p
}

// newFixture builds one owner with three creditors:
//
//	Nubank  due 15: 300 in 3 installments (split 90 to Ana), 50 cash, 20 fixed
//	Ana     due 10: the 90 split
//	Store   due 21: 40 cash due 2024-03-21
//
// plus a paid, a disabled and a foreign purchase that every report ignores.
func newFixture() *fixture {
	f := &fixture{owner: uuid.New()}
	f.card = models.Creditor{ID: uuid.New(), Name: "Nubank", Type: models.CreditorBank, DueDay: 15, Enabled: true}
	f.friend = models.Creditor{ID: uuid.New(), Name: "Ana", Type: models.CreditorUser, DueDay: 10, Enabled: true}
	f.store = models.Creditor{ID: uuid.New(), Name: "Store", Type: models.CreditorPaymentSlip, DueDay: 21, Enabled: true}

	parent := f.add(purchase(day(2024, 1, 10), models.PaymentInstallment, "300", 3), f.card)
	split := purchase(day(2024, 1, 10), models.PaymentInstallment, "90", 3)
	split.ParentID = &parent.ID
	f.add(split, f.friend)
	f.add(purchase(day(2024, 3, 1), models.PaymentCash, "50", 0), f.card)
	f.add(purchase(day(2024, 2, 1), models.PaymentFixed, "20", 0), f.card)
	f.add(purchase(day(2024, 2, 10), models.PaymentCash, "40", 0), f.store)

	paid := purchase(day(2024, 3, 1), models.PaymentCash, "999", 0)
	paid.PaidStatus = models.StatusPaid
	f.add(paid, f.card)
	disabled := purchase(day(2024, 3, 1), models.PaymentCash, "888", 0)
	disabled.Enabled = false
	f.add(disabled, f.card)
	foreign := f.add(purchase(day(2024, 3, 1), models.PaymentCash, "777", 0), f.card)
	foreign.OwnerID = uuid.New()
	f.purchases[len(f.purchases)-1] = foreign

	f.creditors = NewCreditors([]models.Creditor{f.card, f.friend, f.store})
	return f
}

var reportDate = time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)

func TestAggregateByCreditor(t *testing.T) {
	f := newFixture()
	rows := AggregateByCreditor(f.owner, f.purchases, f.creditors, reportDate)
	require.Len(t, rows, 3)

	assert.Equal(t, "Ana", rows[0].Name)
	assertDec(t, "30", rows[0].AmountPayable)
	assertDec(t, "0", rows[0].TotalValue)
	assertDec(t, "0", rows[0].AmountReceivable)

	assert.Equal(t, "Nubank", rows[1].Name)
	assert.Equal(t, f.card.ID, rows[1].CreditorID)
	assertDec(t, "170", rows[1].TotalValue)
	assertDec(t, "30", rows[1].AmountReceivable)
	assertDec(t, "0", rows[1].AmountPayable)

	assert.Equal(t, "Store", rows[2].Name)
	assertDec(t, "40", rows[2].TotalValue)
}

func TestAggregateByMonth(t *testing.T) {
	f := newFixture()
	rows := AggregateByMonth(f.owner, f.purchases, f.creditors, reportDate)

	want := map[time.Month]string{
		time.February: "100",
		time.March:    "160",
		time.April:    "170",
	}
	for m := time.May; m <= time.December; m++ {
		want[m] = "20"
	}
	require.Len(t, rows, len(want))
	for i, row := range rows {
		assert.Equal(t, 2024, row.Month.Year())
		assert.Equal(t, 1, row.Month.Day())
		if i > 0 {
			assert.True(t, rows[i-1].Month.Before(row.Month))
		}
		assertDec(t, want[row.Month.Month()], row.Amount)
	}
}

func TestAggregateByWeek(t *testing.T) {
	f := newFixture()
	rows := AggregateByWeek(f.owner, f.purchases, f.creditors, reportDate)

	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].DayOfWeek) // Thursday 2024-03-21
	assertDec(t, "40", rows[0].Amount)

	assert.Empty(t, AggregateByWeek(f.owner, f.purchases, f.creditors, day(2024, 3, 28)))
}

func TestAggregateByPaymentType(t *testing.T) {
	f := newFixture()
	rows := AggregateByPaymentType(f.owner, f.purchases, f.creditors, reportDate)

	require.Len(t, rows, 3)
	assert.Equal(t, models.PaymentCash, rows[0].PaymentType)
	assertDec(t, "90", rows[0].Amount)
	assert.Equal(t, models.PaymentInstallment, rows[1].PaymentType)
	assertDec(t, "100", rows[1].Amount)
	assert.Equal(t, models.PaymentFixed, rows[2].PaymentType)
	assertDec(t, "20", rows[2].Amount)
}

func TestAggregatesAreRepeatable(t *testing.T) {
	f := newFixture()
	before := slices.Clone(f.purchases)

	assert.Equal(t,
		AggregateByCreditor(f.owner, f.purchases, f.creditors, reportDate),
		AggregateByCreditor(f.owner, f.purchases, f.creditors, reportDate))
	assert.Equal(t,
		AggregateByMonth(f.owner, f.purchases, f.creditors, reportDate),
		AggregateByMonth(f.owner, f.purchases, f.creditors, reportDate))
	assert.Equal(t,
		AggregateByWeek(f.owner, f.purchases, f.creditors, reportDate),
		AggregateByWeek(f.owner, f.purchases, f.creditors, reportDate))
	assert.Equal(t,
		AggregateByPaymentType(f.owner, f.purchases, f.creditors, reportDate),
		AggregateByPaymentType(f.owner, f.purchases, f.creditors, reportDate))
	assert.Equal(t, before, f.purchases)
}

func TestAggregatesForUnknownOwnerAreEmpty(t *testing.T) {
	f := newFixture()
	stranger := uuid.New()
	assert.Empty(t, AggregateByCreditor(stranger, f.purchases, f.creditors, reportDate))
	assert.Empty(t, AggregateByMonth(stranger, f.purchases, f.creditors, reportDate))
	assert.Empty(t, AggregateByWeek(stranger, f.purchases, f.creditors, reportDate))
	assert.Empty(t, AggregateByPaymentType(stranger, f.purchases, f.creditors, reportDate))
}
