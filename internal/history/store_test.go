package history_test

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/rezonia/invoice-tally/internal/history"
	"github.com/rezonia/invoice-tally/internal/model"
)

var _ = Describe("BoltStore", func() {
	var (
		dbPath string
		store  *history.BoltStore
	)

	newEntry := func(number string) *history.Entry {
		return &history.Entry{
			FileName:      "invoice-" + number + ".pdf",
			VoucherType:   "Purchase",
			VoucherNumber: number,
			PartyName:     "Acme Traders",
			Total:         "1180",
			Record: &model.InvoiceRecord{
				TransactionType: model.TransactionPurchase,
				DocumentNumber:  number,
				GrandTotal:      model.Dec(decimal.NewFromInt(1180)),
			},
			XML: "<ENVELOPE/>",
			Findings: []*model.ValidationError{
				model.NewValidationError("invoice_date", nil, "required", "missing invoice date"),
			},
		}
	}

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "history.db")
		var err error
		store, err = history.NewBoltStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("Save", func() {
		var (
			entry *history.Entry
			err   error
		)

		BeforeEach(func() {
			entry = newEntry("INV-1")
		})

		JustBeforeEach(func() {
			err = store.Save(entry)
		})

		When("the entry has no ID", func() {
			It("assigns one", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(entry.ID).NotTo(BeEmpty())
			})

			It("stamps the creation time", func() {
				Expect(entry.CreatedAt).NotTo(BeZero())
			})
		})

		When("the entry already has an ID", func() {
			BeforeEach(func() {
				entry.ID = "fixed-id"
				entry.CreatedAt = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
			})

			It("keeps it", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(entry.ID).To(Equal("fixed-id"))

				got, getErr := store.Get("fixed-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(got.CreatedAt.Equal(entry.CreatedAt)).To(BeTrue())
			})
		})
	})

	Describe("Get", func() {
		When("the entry exists", func() {
			It("round-trips the record and findings", func() {
				entry := newEntry("INV-7")
				Expect(store.Save(entry)).To(Succeed())

				got, err := store.Get(entry.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.VoucherNumber).To(Equal("INV-7"))
				Expect(got.XML).To(Equal("<ENVELOPE/>"))
				Expect(got.Record).NotTo(BeNil())
				Expect(got.Record.GrandTotal.Equal(decimal.NewFromInt(1180))).To(BeTrue())
				Expect(got.Findings).To(HaveLen(1))
				Expect(got.Findings[0].Field).To(Equal("invoice_date"))
			})
		})

		When("the entry does not exist", func() {
			It("returns ErrNotFound", func() {
				_, err := store.Get("missing")
				Expect(errors.Is(err, history.ErrNotFound)).To(BeTrue())
			})
		})
	})

	Describe("List", func() {
		When("the store is empty", func() {
			It("returns an empty slice", func() {
				entries, err := store.List()
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(BeEmpty())
			})
		})

		When("several entries were saved", func() {
			BeforeEach(func() {
				for _, n := range []string{"A", "B", "C"} {
					Expect(store.Save(newEntry(n))).To(Succeed())
				}
			})

			It("returns them newest first", func() {
				entries, err := store.List()
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(3))
				Expect(entries[0].VoucherNumber).To(Equal("C"))
				Expect(entries[1].VoucherNumber).To(Equal("B"))
				Expect(entries[2].VoucherNumber).To(Equal("A"))
			})
		})
	})

	Describe("Delete", func() {
		It("removes the entry", func() {
			entry := newEntry("INV-9")
			Expect(store.Save(entry)).To(Succeed())

			Expect(store.Delete(entry.ID)).To(Succeed())

			_, err := store.Get(entry.ID)
			Expect(errors.Is(err, history.ErrNotFound)).To(BeTrue())
		})

		It("returns ErrNotFound for an unknown ID", func() {
			err := store.Delete("missing")
			Expect(errors.Is(err, history.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("Clear", func() {
		It("drops every entry and reports the count", func() {
			Expect(store.Save(newEntry("A"))).To(Succeed())
			Expect(store.Save(newEntry("B"))).To(Succeed())

			n, err := store.Clear()
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))

			entries, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("leaves the store usable", func() {
			_, err := store.Clear()
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Save(newEntry("D"))).To(Succeed())
		})
	})

	Describe("reopening", func() {
		It("keeps entries across restarts", func() {
			entry := newEntry("INV-42")
			Expect(store.Save(entry)).To(Succeed())
			Expect(store.Close()).To(Succeed())

			var err error
			store, err = history.NewBoltStore(dbPath)
			Expect(err).NotTo(HaveOccurred())

			got, err := store.Get(entry.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PartyName).To(Equal("Acme Traders"))
		})
	})

	Describe("Entry.DownloadName", func() {
		It("uses the sanitized voucher number", func() {
			e := &history.Entry{ID: "abc", VoucherNumber: "INV/2024 07"}
			Expect(e.DownloadName()).To(Equal("tally_INV_2024_07.xml"))
		})

		It("falls back to the ID", func() {
			e := &history.Entry{ID: "abc"}
			Expect(e.DownloadName()).To(Equal("tally_abc.xml"))
		})
	})
})
