package funnel

import (
	"sort"
	"strings"
	"time"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// journey is one user's ordered page sequence.
type journey struct {
	userID string
	pages  []string
}

// buildJourneys groups page views per user and orders each sequence by
// timestamp. Users are returned in ascending ID order for deterministic
// downstream iteration.
func buildJourneys(pageViews []domain.PageView) []journey {
	type acc struct {
		views []domain.PageView
	}
	byUser := make(map[string]*acc)
	for _, pv := range pageViews {
		a, ok := byUser[pv.UserID]
		if !ok {
			a = &acc{}
			byUser[pv.UserID] = a
		}
		a.views = append(a.views, pv)
	}

	ids := make([]string, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	journeys := make([]journey, 0, len(ids))
	for _, id := range ids {
		views := byUser[id].views
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].Timestamp.Before(views[j].Timestamp)
		})
		pages := make([]string, len(views))
		for i, pv := range views {
			pages[i] = pv.PagePath
		}
		journeys = append(journeys, journey{userID: id, pages: pages})
	}
	return journeys
}

// JourneyPatterns compares journey shape between converted and non-converted
// users and surfaces the best-converting first-three-page prefixes (at least
// ten users per prefix, top ten by rate).
func (a *Analyzer) JourneyPatterns(journeys []journey, converted map[string]bool) *domain.JourneyPatterns {
	var convLengths, nonConvLengths []float64
	var convPages, nonConvPages []float64

	type prefixAcc struct {
		users       int
		conversions int
	}
	prefixes := make(map[string]*prefixAcc)

	for _, j := range journeys {
		length := float64(len(j.pages))
		unique := float64(distinctCount(j.pages))
		if converted[j.userID] {
			convLengths = append(convLengths, length)
			convPages = append(convPages, unique)
		} else {
			nonConvLengths = append(nonConvLengths, length)
			nonConvPages = append(nonConvPages, unique)
		}

		if len(j.pages) < 3 {
			continue
		}
		key := strings.Join(j.pages[:3], " -> ")
		p, ok := prefixes[key]
		if !ok {
			p = &prefixAcc{}
			prefixes[key] = p
		}
		p.users++
		if converted[j.userID] {
			p.conversions++
		}
	}

	common := make([]domain.CommonPath, 0, len(prefixes))
	for key, p := range prefixes {
		if p.users < minPrefixUsers {
			continue
		}
		common = append(common, domain.CommonPath{
			Path:           key,
			Users:          p.users,
			Conversions:    p.conversions,
			ConversionRate: rate(p.conversions, p.users),
		})
	}
	sort.Slice(common, func(i, j int) bool {
		if common[i].ConversionRate != common[j].ConversionRate {
			return common[i].ConversionRate > common[j].ConversionRate
		}
		if common[i].Users != common[j].Users {
			return common[i].Users > common[j].Users
		}
		return common[i].Path < common[j].Path
	})

	return &domain.JourneyPatterns{
		Converted: domain.PathLengthStats{
			AvgLength:      mean(convLengths),
			MedianLength:   median(convLengths),
			AvgUniquePages: mean(convPages),
		},
		NonConverted: domain.PathLengthStats{
			AvgLength:      mean(nonConvLengths),
			MedianLength:   median(nonConvLengths),
			AvgUniquePages: mean(nonConvPages),
		},
		CommonPaths: top(common, topCommonPaths),
	}
}

// TemporalPatterns measures hours from each converting user's first event to
// their first conversion event. Users whose conversion precedes their first
// observed event are skipped.
func (a *Analyzer) TemporalPatterns(events []domain.ClassifiedEvent, conversions []domain.ConversionEvent) *domain.TemporalPatterns {
	firstEvent := make(map[string]time.Time)
	for _, ev := range events {
		if first, ok := firstEvent[ev.UserID]; !ok || ev.Timestamp.Before(first) {
			firstEvent[ev.UserID] = ev.Timestamp
		}
	}

	firstConversion := make(map[string]time.Time)
	for _, conv := range conversions {
		if first, ok := firstConversion[conv.UserID]; !ok || conv.Timestamp.Before(first) {
			firstConversion[conv.UserID] = conv.Timestamp
		}
	}

	var hours []float64
	sameHour, within24h := 0, 0
	for userID, convTime := range firstConversion {
		start, ok := firstEvent[userID]
		if !ok || convTime.Before(start) {
			continue
		}
		h := convTime.Sub(start).Hours()
		hours = append(hours, h)
		if h < 1 {
			sameHour++
		}
		if h < 24 {
			within24h++
		}
	}

	return &domain.TemporalPatterns{
		AvgHoursToConversion:    mean(hours),
		MedianHoursToConversion: median(hours),
		SameHourConversions:     sameHour,
		Within24hConversions:    within24h,
		ConvertingUsers:         len(hours),
	}
}

// ConversionPaths summarizes the page journeys of converting users: modal
// entry page, modal page immediately before conversion, mean length, and the
// pages appearing most often across converting journeys.
func (a *Analyzer) ConversionPaths(journeys []journey, converted map[string]bool) *domain.ConversionPaths {
	firstPages := make(map[string]int)
	preConvPages := make(map[string]int)
	pageCounts := make(map[string]int)
	totalLength := 0
	paths := 0

	for _, j := range journeys {
		if !converted[j.userID] || len(j.pages) == 0 {
			continue
		}
		paths++
		totalLength += len(j.pages)
		firstPages[j.pages[0]]++
		if len(j.pages) >= 2 {
			preConvPages[j.pages[len(j.pages)-2]]++
		}
		for _, page := range j.pages {
			pageCounts[page]++
		}
	}

	if paths == 0 {
		return &domain.ConversionPaths{}
	}

	critical := make([]domain.CriticalPage, 0, len(pageCounts))
	for page, count := range pageCounts {
		critical = append(critical, domain.CriticalPage{
			Page:           page,
			Appearances:    count,
			AppearanceRate: rate(count, paths),
			PageCategory:   a.matcher.PageCategory(page),
		})
	}
	sort.Slice(critical, func(i, j int) bool {
		if critical[i].Appearances != critical[j].Appearances {
			return critical[i].Appearances > critical[j].Appearances
		}
		return critical[i].Page < critical[j].Page
	})

	return &domain.ConversionPaths{
		TotalPaths:              paths,
		AvgPathLength:           float64(totalLength) / float64(paths),
		MostCommonStart:         modalKey(firstPages),
		MostCommonPreConversion: modalKey(preConvPages),
		CriticalPages:           top(critical, topCriticalPages),
	}
}

// DropOffPoints groups non-converting users by their highest reached stage
// and reports where they were last seen. Rates are over all drop-offs; the
// per-stage page shares are within that stage.
func (a *Analyzer) DropOffPoints(journeys []journey, progress []domain.UserProgress) []domain.DropOffPoint {
	lastPage := make(map[string]string, len(journeys))
	for _, j := range journeys {
		if len(j.pages) > 0 {
			lastPage[j.userID] = j.pages[len(j.pages)-1]
		}
	}

	type stageAcc struct {
		dropped int
		pages   map[string]int
	}
	stages := make(map[domain.Stage]*stageAcc)
	totalDropped := 0

	for _, p := range progress {
		if p.ReachedConversion {
			continue
		}
		totalDropped++
		s, ok := stages[p.HighestStage]
		if !ok {
			s = &stageAcc{pages: make(map[string]int)}
			stages[p.HighestStage] = s
		}
		s.dropped++
		if page, found := lastPage[p.UserID]; found {
			s.pages[page]++
		}
	}

	order := append([]domain.Stage{}, domain.StageOrder...)
	order = append(order, domain.StageUnknown)

	out := make([]domain.DropOffPoint, 0, len(stages))
	for _, stage := range order {
		s, ok := stages[stage]
		if !ok {
			continue
		}
		out = append(out, domain.DropOffPoint{
			Stage:        stage,
			TotalDropped: s.dropped,
			DropOffRate:  rate(s.dropped, totalDropped),
			TopPages:     topPagesByShare(s.pages, s.dropped),
		})
	}
	return out
}

func topPagesByShare(counts map[string]int, total int) []domain.DropOffPage {
	pages := make([]domain.DropOffPage, 0, len(counts))
	for page, count := range counts {
		pages = append(pages, domain.DropOffPage{
			Page:       page,
			Count:      count,
			Percentage: rate(count, total),
		})
	}
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Count != pages[j].Count {
			return pages[i].Count > pages[j].Count
		}
		return pages[i].Page < pages[j].Page
	})
	return top(pages, topDropOffPages)
}

// modalKey returns the highest-count key, breaking ties toward the
// lexically smaller key.
func modalKey(counts map[string]int) string {
	best := ""
	bestCount := 0
	for key, count := range counts {
		if count > bestCount || (count == bestCount && (best == "" || key < best)) {
			best = key
			bestCount = count
		}
	}
	return best
}

func distinctCount(items []string) int {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item] = struct{}{}
	}
	return len(seen)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
