package domain

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCustomer(t *testing.T, name string) *Customer {
	t.Helper()
	c, err := NewCustomer(name)
	require.NoError(t, err)
	return c
}

func TestNewCustomer(t *testing.T) {
	a := newTestCustomer(t, "alice")
	b := newTestCustomer(t, "alice")

	assert.NotEqual(t, a.ID, b.ID, "ids are unique even for equal names")
	assert.False(t, a.Is(b))
	assert.True(t, a.Is(&Customer{ID: a.ID, Name: "someone else"}))

	_, err := NewCustomer("   ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestNewOrder(t *testing.T) {
	c := newTestCustomer(t, "bob")

	o, err := NewOrder(c, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, o.Len())
	assert.Equal(t, DrinkCount{Teas: 2, Coffees: 1}, o.Counts())
	assert.Equal(t, "bob: 2 teas and 1 coffee", o.String())

	for _, it := range o.Items() {
		assert.Equal(t, StatusWaiting, it.Status())
		assert.Same(t, o, it.Order())
		assert.True(t, it.Owner().Is(c))
	}

	_, err = NewOrder(c, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = NewOrder(c, -1, 2)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestOrder_AddItemsRejectedWhenReady(t *testing.T) {
	o, err := NewOrder(newTestCustomer(t, "carol"), 1, 0)
	require.NoError(t, err)

	o.MarkReadyForCollection(true)
	_, err = o.AddItems(1, 0)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, o.Len(), "order is untouched")

	o.MarkReadyForCollection(false)
	added, err := o.AddItems(0, 2)
	require.NoError(t, err)
	assert.Len(t, added, 2)
	assert.Equal(t, 3, o.Len())
}

func TestOrder_ConcurrentAddItems(t *testing.T) {
	o, err := NewOrder(newTestCustomer(t, "dave"), 1, 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := o.AddItems(3, 0)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := o.AddItems(0, 1)
		assert.NoError(t, err)
	}()
	wg.Wait()

	assert.Equal(t, 5, o.Len())
	assert.Equal(t, DrinkCount{Teas: 4, Coffees: 1}, o.Counts())
}

func TestOrder_MarkReadyIfComplete(t *testing.T) {
	o, err := NewOrder(newTestCustomer(t, "erin"), 1, 1)
	require.NoError(t, err)

	assert.False(t, o.MarkReadyIfComplete(1))
	assert.False(t, o.ReadyForCollection())
	assert.True(t, o.MarkReadyIfComplete(2))
	assert.True(t, o.ReadyForCollection())
	assert.False(t, o.MarkReadyIfComplete(2), "only the first completion reports true")
}

func TestItem_MoveToIsOneWay(t *testing.T) {
	o, err := NewOrder(newTestCustomer(t, "frank"), 1, 0)
	require.NoError(t, err)
	it := o.Items()[0]

	require.NoError(t, it.MoveTo(StatusBrewing))
	require.NoError(t, it.MoveTo(StatusTray))
	err = it.MoveTo(StatusBrewing)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, StatusTray, it.Status())
}

func TestRepurposeItem(t *testing.T) {
	from, err := NewOrder(newTestCustomer(t, "gina"), 1, 0)
	require.NoError(t, err)
	to, err := NewOrder(newTestCustomer(t, "hank"), 1, 1)
	require.NoError(t, err)

	donated := from.Items()[0]
	require.NoError(t, donated.MoveTo(StatusBrewing))
	require.True(t, to.CanAccept(donated))

	placeholder, err := to.RepurposeItem(donated)
	require.NoError(t, err)
	assert.Equal(t, Tea, placeholder.Kind())
	assert.Equal(t, StatusWaiting, placeholder.Status())

	assert.Equal(t, 2, to.Len())
	assert.Contains(t, to.Items(), donated)
	assert.NotContains(t, to.Items(), placeholder)
	assert.Same(t, to, donated.Order())
	assert.True(t, donated.Repurposed())
	assert.False(t, to.CanAccept(donated), "no waiting tea left")

	assert.Equal(t, 1, from.Len(), "donor order keeps its history")

	assert.False(t, donated.Cancel(), "repurposed items cannot be cancelled")
	assert.False(t, donated.Cancelled())

	assert.True(t, donated.Discard(), "a leaving owner still clears it")
	assert.True(t, donated.Cancelled())
	assert.False(t, donated.Repurposed(), "cancelled and repurposed stay exclusive")
	assert.False(t, donated.Discard())
}

func TestRepurposeItem_Rejections(t *testing.T) {
	from, err := NewOrder(newTestCustomer(t, "ivy"), 0, 1)
	require.NoError(t, err)
	to, err := NewOrder(newTestCustomer(t, "jack"), 1, 0)
	require.NoError(t, err)

	coffee := from.Items()[0]
	assert.False(t, to.CanAccept(coffee))
	_, err = to.RepurposeItem(coffee)
	assert.ErrorIs(t, err, ErrInvalidState)

	other, err := NewOrder(newTestCustomer(t, "kim"), 0, 1)
	require.NoError(t, err)
	require.True(t, coffee.Cancel())
	_, err = other.RepurposeItem(coffee)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.False(t, coffee.Repurposed())
	assert.Equal(t, 1, other.Len())
}

func TestEquivalent(t *testing.T) {
	c := newTestCustomer(t, "leo")
	o, err := NewOrder(c, 2, 1)
	require.NoError(t, err)
	items := o.Items()

	assert.True(t, Equivalent(items[0], items[1]))
	assert.False(t, Equivalent(items[0], items[2]))
	assert.True(t, Equivalent(items[0], NewPlaceholder(Tea, o)))

	stranger, err := NewOrder(newTestCustomer(t, "leo"), 1, 0)
	require.NoError(t, err)
	assert.False(t, Equivalent(items[0], stranger.Items()[0]), "same name, different customer")
}

func TestDrinkCountString(t *testing.T) {
	tests := []struct {
		count DrinkCount
		want  string
	}{
		{DrinkCount{}, "no items"},
		{DrinkCount{Teas: 1}, "1 tea"},
		{DrinkCount{Coffees: 3}, "3 coffees"},
		{DrinkCount{Teas: 2, Coffees: 1}, "2 teas and 1 coffee"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.count.String())
	}
}
