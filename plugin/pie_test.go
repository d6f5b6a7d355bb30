package plugin

import (
	. "gopkg.in/check.v1"
)

type PieSuite struct {
	Pie *Pie
}

var _ = Suite(&PieSuite{})

func (p *PieSuite) SetUpTest(c *C) {
	p.Pie = NewPie("test", "123", []Slice{
		{Name: "Cherry", MaxValue: 2, Value: 1},
		{Name: "Apple", MaxValue: 6, Value: 3},
		{Name: "Kale"},
	})
}

func (p *PieSuite) TestNewPieCopiesDefaults(c *C) {
	defaults := []Slice{{Name: "Cherry", MaxValue: 2}}
	pie := NewPie("test", "123", defaults)
	c.Assert(pie.Subject, Equals, "123")
	c.Assert(pie.Method, Equals, "test")
	pie.UpdateSliceValue("Cherry", 1, "")
	c.Assert(defaults[0].Value, Equals, 0.0)
}

func (p *PieSuite) TestTotalValues(c *C) {
	c.Assert(p.Pie.TotalValues(), Equals, 4.0)
}

func (p *PieSuite) TestUpdateSliceValue(c *C) {
	p.Pie.UpdateSliceValue("Apple", 5, "five apples")
	c.Assert(p.Pie.SliceValue("Apple"), Equals, 5.0)
	c.Assert(p.Pie.Slices[1].Reason, Equals, "five apples")
	c.Assert(p.Pie.TotalValues(), Equals, 6.0)
}

func (p *PieSuite) TestUpdateSliceValueCaps(c *C) {
	p.Pie.UpdateSliceValue("Apple", 50, "")
	c.Assert(p.Pie.SliceValue("Apple"), Equals, 6.0)

	// uncapped slices may go negative for protective factors
	p.Pie.UpdateSliceValue("Kale", -4, "leafy greens")
	c.Assert(p.Pie.SliceValue("Kale"), Equals, -4.0)
	c.Assert(p.Pie.TotalValues(), Equals, 3.0)
}

func (p *PieSuite) TestUnknownSlice(c *C) {
	p.Pie.UpdateSliceValue("Durian", 5, "")
	c.Assert(p.Pie.SliceValue("Durian"), Equals, 0.0)
	c.Assert(p.Pie.TotalValues(), Equals, 4.0)
}

func (p *PieSuite) TestPieClone(c *C) {
	clone := p.Pie.Clone()
	c.Assert(clone, Not(Equals), p.Pie)
	c.Assert(clone.Subject, Equals, p.Pie.Subject)
	c.Assert(clone.Slices, DeepEquals, p.Pie.Slices)

	// Modify clone and make sure it doesn't affect original
	clone.UpdateSliceValue("Apple", 2, "")
	c.Assert(clone.Slices[1].Value, Equals, 2.0)
	c.Assert(p.Pie.Slices[1].Value, Equals, 3.0)
}

func (p *PieSuite) TestTopFactors(c *C) {
	p.Pie.UpdateSliceValue("Kale", -1, "")
	factors := p.Pie.TopFactors(1)
	c.Assert(factors, HasLen, 1)
	c.Assert(factors[0].Name, Equals, "Apple")

	factors = p.Pie.TopFactors(5)
	c.Assert(factors, HasLen, 2)
}
