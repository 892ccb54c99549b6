package reconcile_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // Dot import is idiomatic for Ginkgo
	. "github.com/onsi/gomega"    //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/docsync/internal/cache"
	"github.com/joe/docsync/internal/manifest"
	"github.com/joe/docsync/internal/reconcile"
)

var _ = Describe("Planner", func() {
	var (
		planner *reconcile.Planner
		local   *cache.Cache
	)

	entry := func(name, modified string) manifest.Entry {
		return manifest.Entry{Name: name, Size: 18810, Modified: modified}
	}

	BeforeEach(func() {
		planner = reconcile.NewPlanner("http://library.test/", "/docs")
		local = cache.New()
	})

	Describe("deciding inclusion", func() {
		It("plans a new task when no local record exists", func() {
			m := &manifest.Manifest{GCF: []manifest.Entry{entry("testing.pdf", "2025-12-27T17:53:00Z")}}

			tasks := planner.Plan(m, local)

			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].Reason).To(Equal(reconcile.ReasonNew))
			Expect(tasks[0].Category).To(Equal(cache.CategoryGCF))
			Expect(tasks[0].RelPath).To(Equal("gcf/testing.pdf"))
		})

		It("always retries a failed record regardless of timestamps", func() {
			local.Upsert(cache.CategoryGCF, cache.NewFailedPlaceholder(cache.CategoryGCF, "testing.pdf", 18810, "2025-12-27T17:53:00Z"))

			// Manifest timestamp unchanged - a failed file is still retried
			m := &manifest.Manifest{GCF: []manifest.Entry{entry("testing.pdf", "2025-12-27T17:53:00Z")}}

			tasks := planner.Plan(m, local)

			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].Reason).To(Equal(reconcile.ReasonRetry))
		})

		It("retries a failed record even when the manifest timestamp is older", func() {
			rec := cache.NewRecord(cache.CategoryGCF, "testing.pdf", 18810, "2025-12-27", "2025-12-27T17:53:00Z")
			local.Upsert(cache.CategoryGCF, rec)
			local.MarkFailed(cache.CategoryGCF, "gcf/testing.pdf")

			m := &manifest.Manifest{GCF: []manifest.Entry{entry("testing.pdf", "2025-01-01T00:00:00Z")}}

			tasks := planner.Plan(m, local)

			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].Reason).To(Equal(reconcile.ReasonRetry))
		})

		It("plans an update when the manifest is newer than remoteModified", func() {
			local.Upsert(cache.CategoryGCF, cache.NewRecord(cache.CategoryGCF, "testing.pdf", 18810, "2025-12-27", "2025-12-27T17:53:00Z"))

			m := &manifest.Manifest{GCF: []manifest.Entry{entry("testing.pdf", "2025-12-28T10:00:00Z")}}

			tasks := planner.Plan(m, local)

			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].Reason).To(Equal(reconcile.ReasonUpdated))
		})

		It("excludes entries whose local copy is current", func() {
			local.Upsert(cache.CategoryGCF, cache.NewRecord(cache.CategoryGCF, "testing.pdf", 18810, "2025-12-27", "2025-12-27T17:53:00Z"))

			m := &manifest.Manifest{GCF: []manifest.Entry{entry("testing.pdf", "2025-12-27T17:53:00Z")}}

			Expect(planner.Plan(m, local)).To(BeEmpty())
		})

		It("excludes entries with an older manifest timestamp", func() {
			local.Upsert(cache.CategoryGCF, cache.NewRecord(cache.CategoryGCF, "testing.pdf", 18810, "2025-12-27", "2025-12-27T17:53:00Z"))

			m := &manifest.Manifest{GCF: []manifest.Entry{entry("testing.pdf", "2025-12-26T00:00:00Z")}}

			Expect(planner.Plan(m, local)).To(BeEmpty())
		})

		It("falls back to the record date when remoteModified is absent", func() {
			// Scan-created record: date only, no remoteModified
			local.Upsert(cache.CategoryGCF, cache.DocumentRecord{
				File: "gcf/testing.pdf",
				Date: "2025-12-20",
			})

			m := &manifest.Manifest{GCF: []manifest.Entry{entry("testing.pdf", "2025-12-27T17:53:00Z")}}

			tasks := planner.Plan(m, local)

			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].Reason).To(Equal(reconcile.ReasonUpdated))
		})

		It("excludes entries with unparseable timestamps", func() {
			local.Upsert(cache.CategoryGCF, cache.NewRecord(cache.CategoryGCF, "testing.pdf", 18810, "2025-12-27", "2025-12-27T17:53:00Z"))

			m := &manifest.Manifest{GCF: []manifest.Entry{entry("testing.pdf", "not-a-timestamp")}}

			Expect(planner.Plan(m, local)).To(BeEmpty())
		})
	})

	Describe("task derivation", func() {
		It("derives source URL, destination path, and relative path", func() {
			m := &manifest.Manifest{Policy: []manifest.Entry{entry("conduct.pdf", "2025-12-27T17:53:00Z")}}

			tasks := planner.Plan(m, local)

			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].SourceURL).To(Equal("http://library.test/docs/policy/conduct.pdf"))
			Expect(tasks[0].DestPath).To(Equal(filepath.Join("/docs", "policy", "conduct.pdf")))
			Expect(tasks[0].RelPath).To(Equal("policy/conduct.pdf"))
			Expect(tasks[0].Size).To(Equal(int64(18810)))
			Expect(tasks[0].Modified).To(Equal("2025-12-27T17:53:00Z"))
		})
	})

	Describe("ordering", func() {
		It("keeps manifest order with all gcf entries before all policy entries", func() {
			m := &manifest.Manifest{
				GCF: []manifest.Entry{
					entry("b.pdf", "2025-12-27T17:53:00Z"),
					entry("a.pdf", "2025-12-27T17:53:00Z"),
				},
				Policy: []manifest.Entry{
					entry("z.pdf", "2025-12-27T17:53:00Z"),
				},
			}

			tasks := planner.Plan(m, local)

			Expect(tasks).To(HaveLen(3))
			Expect(tasks[0].RelPath).To(Equal("gcf/b.pdf"))
			Expect(tasks[1].RelPath).To(Equal("gcf/a.pdf"))
			Expect(tasks[2].RelPath).To(Equal("policy/z.pdf"))
		})
	})

	Describe("purity", func() {
		It("does not mutate the cache while planning", func() {
			local.Upsert(cache.CategoryGCF, cache.NewFailedPlaceholder(cache.CategoryGCF, "testing.pdf", 18810, "2025-12-27T17:53:00Z"))
			before := local.GCF[0]

			m := &manifest.Manifest{GCF: []manifest.Entry{entry("testing.pdf", "2025-12-27T17:53:00Z")}}
			_ = planner.Plan(m, local)

			Expect(local.GCF).To(HaveLen(1))
			Expect(local.GCF[0]).To(Equal(before))
		})
	})
})
