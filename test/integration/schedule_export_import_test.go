//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/admin"
	"github.com/aaronsb/playtimed/internal/domain"
	"github.com/aaronsb/playtimed/internal/store"
)

// Concrete Scenario 6: exporting every user's schedule and re-importing it
// unmodified must round-trip as a no-op against the real Store.
var _ = Describe("Schedule export/import", func() {
	var (
		dataDir string
		st      *store.Store
		a       *admin.Surface
	)

	BeforeEach(func() {
		var err error
		dataDir, err = os.MkdirTemp("", "playtimed-schedule-*")
		Expect(err).NotTo(HaveOccurred())

		st, err = store.Open(dataDir, nil, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		a = admin.New(st, zap.NewNop())

		Expect(st.UpsertUser(context.Background(), domain.User{Name: "alice", UID: 1000, Enabled: true})).To(Succeed())
		dailyTotal := 90
		Expect(st.SetLimits(context.Background(), domain.Limits{
			User: "alice", GamingLimitMin: 120, GracePeriodSec: 60,
			Schedule: allowedWeekdaysGrid(), DailyTotalMin: &dailyTotal,
		})).To(Succeed())
	})

	AfterEach(func() {
		st.Close()
		os.RemoveAll(dataDir)
	})

	It("round-trips export then import as a no-op", func() {
		before, err := a.GetLimits(context.Background(), "alice")
		Expect(err).NotTo(HaveOccurred())

		exported, err := a.ExportSchedule(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(exported).To(HaveKey("alice"))

		file := filepath.Join(dataDir, "schedule.json")
		data, err := json.MarshalIndent(exported, "", "  ")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(file, data, 0600)).To(Succeed())

		raw, err := os.ReadFile(file)
		Expect(err).NotTo(HaveOccurred())
		var roundTripped map[string]admin.ScheduleEntry
		Expect(json.Unmarshal(raw, &roundTripped)).To(Succeed())
		Expect(a.ImportSchedule(context.Background(), roundTripped)).To(Succeed())

		after, err := a.GetLimits(context.Background(), "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before))
	})

	It("rejects an import naming a user that does not exist", func() {
		err := a.ImportSchedule(context.Background(), map[string]admin.ScheduleEntry{
			"ghost": {Schedule: allowedWeekdaysGrid(), GamingLimit: 60},
		})
		Expect(err).To(HaveOccurred())
	})
})

func allowedWeekdaysGrid() string {
	b := make([]byte, 168)
	for i := range b {
		day := i / 24
		if day < 5 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}
