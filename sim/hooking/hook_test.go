package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		base     *HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		base = &HookableBase{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke hooks in registration order", func() {
		first := NewMockHook(mockCtrl)
		second := NewMockHook(mockCtrl)
		pos := &HookPos{Name: "Pos"}
		ctx := HookCtx{Pos: pos, Item: 1}

		gomock.InOrder(
			first.EXPECT().Func(ctx),
			second.EXPECT().Func(ctx),
		)

		base.AcceptHook(first)
		base.AcceptHook(second)
		base.InvokeHook(ctx)

		Expect(base.NumHooks()).To(Equal(2))
	})

	It("should panic when the same hook is registered twice", func() {
		hook := NewMockHook(mockCtrl)
		base.AcceptHook(hook)

		Expect(func() { base.AcceptHook(hook) }).To(Panic())
	})

	It("should stop invoking a removed hook", func() {
		kept := NewMockHook(mockCtrl)
		removed := NewMockHook(mockCtrl)
		ctx := HookCtx{Pos: &HookPos{Name: "Pos"}}

		kept.EXPECT().Func(ctx)

		base.AcceptHook(removed)
		base.AcceptHook(kept)
		base.RemoveHook(removed)
		base.InvokeHook(ctx)

		Expect(base.Hooks()).To(ConsistOf(kept))
	})

	It("should adapt plain functions", func() {
		var got []string
		hook := &HookFunc{F: func(ctx HookCtx) {
			got = append(got, ctx.Pos.Name)
		}}

		base.AcceptHook(hook)
		base.InvokeHook(HookCtx{Pos: &HookPos{Name: "A"}})
		base.InvokeHook(HookCtx{Pos: &HookPos{Name: "B"}})

		Expect(got).To(Equal([]string{"A", "B"}))
	})
})
