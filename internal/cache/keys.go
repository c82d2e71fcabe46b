package cache

import "strconv"

// Collection keys.
const (
	ProductsKey   = "products"
	CategoriesKey = "categories"
	CouponsKey    = "coupons"
	OrdersKey     = "orders"
)

// ProductKey is the entity key of a product.
func ProductKey(id int64) string { return "product" + strconv.FormatInt(id, 10) }

// CouponKey is the entity key of a coupon.
func CouponKey(id int64) string { return "coupon" + strconv.FormatInt(id, 10) }

// OrderKey is the entity key of an order.
func OrderKey(id int64) string { return "order" + strconv.FormatInt(id, 10) }

// ProductKeys returns the collection key followed by the entity key of
// every id, which is what a stock or catalog change must evict.
func ProductKeys(ids ...int64) []string {
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, ProductsKey)
	for _, id := range ids {
		keys = append(keys, ProductKey(id))
	}
	return keys
}
