package core

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var registry *Registry

	nopFactory := func(args any) (any, error) {
		return struct{}{}, nil
	}

	BeforeEach(func() {
		registry = NewRegistry()
	})

	It("should register and look up types", func() {
		desc := TypeDescriptor{
			ID:           "enemy",
			Factory:      nopFactory,
			Capabilities: CapabilityMask(CapUpdatable, CapRenderable),
		}

		Expect(registry.Register(desc)).To(Succeed())

		found, err := registry.Lookup("enemy")
		Expect(err).ToNot(HaveOccurred())
		Expect(found.ID).To(Equal(TypeID("enemy")))
		Expect(found.HasCapability(CapUpdatable)).To(BeTrue())
		Expect(found.HasCapability(CapAudible)).To(BeFalse())
	})

	It("should fail to look up an unknown type", func() {
		_, err := registry.Lookup("ghost")

		Expect(err).To(MatchError(UnknownTypeError{ID: "ghost"}))
	})

	It("should reject a duplicated type ID regardless of call order", func() {
		descA := TypeDescriptor{ID: "enemy", Factory: nopFactory}
		descB := TypeDescriptor{ID: "enemy", Factory: nopFactory}

		Expect(registry.Register(descA)).To(Succeed())
		Expect(registry.Register(descB)).
			To(MatchError(DuplicateTypeError{ID: "enemy"}))
	})

	It("should reject registration after sealing", func() {
		registry.Seal()

		err := registry.Register(TypeDescriptor{
			ID:      "late",
			Factory: nopFactory,
		})

		Expect(err).To(MatchError(RegistryClosedError{ID: "late"}))
		Expect(registry.Sealed()).To(BeTrue())
	})

	It("should list types in registration order", func() {
		Expect(registry.Register(
			TypeDescriptor{ID: "b", Factory: nopFactory})).To(Succeed())
		Expect(registry.Register(
			TypeDescriptor{ID: "a", Factory: nopFactory})).To(Succeed())

		Expect(registry.Types()).To(Equal([]TypeID{"b", "a"}))
	})
})
