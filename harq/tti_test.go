package harq

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TtiPoint", func() {
	It("should wrap on Add", func() {
		t := NewTtiPoint(DefaultTtiModulus - 2)
		Expect(t.Add(5).ToUint()).To(Equal(uint32(3)))
	})

	It("should compute signed difference within the half window", func() {
		a := NewTtiPoint(5)
		b := NewTtiPoint(2)

		Expect(a.Sub(b)).To(Equal(int32(3)))
		Expect(b.Sub(a)).To(Equal(int32(-3)))
	})

	It("should treat a wrap as a small forward step", func() {
		a := NewTtiPoint(1)
		b := NewTtiPoint(DefaultTtiModulus - 1)

		Expect(a.Sub(b)).To(Equal(int32(2)))
	})

	It("should order points with After/AtOrAfter", func() {
		a := NewTtiPoint(5)
		b := NewTtiPoint(2)

		Expect(a.After(b)).To(BeTrue())
		Expect(b.After(a)).To(BeFalse())
		Expect(a.AtOrAfter(a)).To(BeTrue())
	})

	It("should treat the zero value as using the default modulus", func() {
		var zero TtiPoint
		other := NewTtiPoint(10)

		Expect(func() { zero.Sub(other) }).NotTo(Panic())
	})

	It("should panic when comparing mismatched moduli", func() {
		a := NewTtiPointMod(5, DefaultTtiModulus)
		b := NewTtiPointMod(5, DefaultTtiModulus*2)

		Expect(func() { a.Equal(b) }).To(Panic())
	})
})
