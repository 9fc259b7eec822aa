package reconciler

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/arkantrust/dealership-admin/backend/models"
)

var (
	orderIDPattern = regexp.MustCompile(`(?i)^ORD-(\d+)$`)
	stockNoPattern = regexp.MustCompile(`(?i)^STK-(\d+)$`)
)

// NextOrderID returns ORD-<max+1> over the numeric suffixes of ids, padded
// to three digits. Ids that do not match the pattern are ignored.
func NextOrderID(ids ...string) string {
	return fmt.Sprintf("ORD-%03d", maxSeq(orderIDPattern, ids)+1)
}

// NextStockNo is NextOrderID for car stock numbers, padded to four digits.
func NextStockNo(stockNos ...string) string {
	return fmt.Sprintf("STK-%04d", maxSeq(stockNoPattern, stockNos)+1)
}

func maxSeq(re *regexp.Regexp, ids []string) int {
	hi := 0
	for _, id := range ids {
		if n, ok := seq(re, id); ok && n > hi {
			hi = n
		}
	}
	return hi
}

func seq(re *regexp.Regexp, id string) (int, bool) {
	m := re.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func nextID[V any](m map[int64]V) int64 {
	var hi int64
	for id := range m {
		if id > hi {
			hi = id
		}
	}
	return hi + 1
}

func sortedCars(m map[int64]models.Car) []models.Car {
	out := make([]models.Car, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedUsers(m map[int64]models.User) []models.User {
	out := make([]models.User, 0, len(m))
	for _, u := range m {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// sortedOrders orders by sequence number, with ids outside the ORD-n scheme
// after them in lexical order.
func sortedOrders(m map[string]models.Order) []models.Order {
	out := make([]models.Order, 0, len(m))
	for _, o := range m {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		a, aok := seq(orderIDPattern, out[i].ID)
		b, bok := seq(orderIDPattern, out[j].ID)
		switch {
		case aok && bok && a != b:
			return a < b
		case aok != bok:
			return aok
		}
		return out[i].ID < out[j].ID
	})
	return out
}
