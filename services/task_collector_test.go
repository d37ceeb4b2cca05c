package services

import (
	"reflect"
	"testing"
)

func TestCollectorPools(t *testing.T) {
	c := NewTaskCollector()
	c.AddCreated(1)
	c.AddCreated(2)
	c.AddModified(3)
	c.AddCancelled(4)

	if got := c.GetCreated(); !reflect.DeepEqual(got, []uint{1, 2}) {
		t.Errorf("created = %v", got)
	}
	if got := c.GetModified(); !reflect.DeepEqual(got, []uint{3}) {
		t.Errorf("modified = %v", got)
	}
	if got := c.GetCancelled(); !reflect.DeepEqual(got, []uint{4}) {
		t.Errorf("cancelled = %v", got)
	}
}

func TestCollectorModifiedFallbackUnion(t *testing.T) {
	c := NewTaskCollector()
	c.AddCreated(10)
	c.AddCancelled(20)

	if got := c.GetModified(); !reflect.DeepEqual(got, []uint{10, 20}) {
		t.Errorf("modified fallback = %v, want [10 20]", got)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewTaskCollector()
	c.AddCreated(1)
	c.AddModified(2)
	c.AddCancelled(3)
	c.Reset()

	if len(c.GetCreated()) != 0 || len(c.GetCancelled()) != 0 {
		t.Error("reset must clear every pool")
	}
	if len(c.GetModified()) != 0 {
		t.Error("reset must clear the modified fallback too")
	}
}
