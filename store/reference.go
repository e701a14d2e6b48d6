package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"gorm.io/gorm/clause"
)

// DefaultAssetType is the asset type of securities that have none.
const DefaultAssetType = "stock"

// assetTypeColumn is the normalized asset type of a security.
const assetTypeColumn = "LOWER(COALESCE(securities.asset_type, '" + DefaultAssetType + "'))"

// CreateBroker inserts a broker, or returns the existing one with that name.
func (s *Store) CreateBroker(ctx context.Context, name string) (Broker, error) {
	b := Broker{Name: name}
	err := s.db.WithContext(ctx).Where(Broker{Name: name}).FirstOrCreate(&b).Error
	if err != nil {
		return Broker{}, fmt.Errorf("failed to create broker %q: %w", name, err)
	}
	return b, nil
}

// CreateSecurity inserts a security and sets its id.
func (s *Store) CreateSecurity(ctx context.Context, sec *Security) error {
	if err := s.db.WithContext(ctx).Create(sec).Error; err != nil {
		return fmt.Errorf("failed to create security %q: %w", sec.Name, err)
	}
	return nil
}

// EnsureSecurity returns the security named name, creating it with assetType
// when there is none. An empty assetType is stored as NULL.
func (s *Store) EnsureSecurity(ctx context.Context, name, assetType string) (Security, error) {
	sec := Security{Name: name}
	if assetType != "" {
		sec.AssetType = &assetType
	}
	err := s.db.WithContext(ctx).Where("name = ?", name).Attrs(sec).FirstOrCreate(&sec).Error
	if err != nil {
		return Security{}, fmt.Errorf("failed to ensure security %q: %w", name, err)
	}
	return sec, nil
}

// Security returns the security with the given id.
func (s *Store) Security(ctx context.Context, id int64) (Security, error) {
	var sec Security
	if err := s.db.WithContext(ctx).First(&sec, id).Error; err != nil {
		return Security{}, mapError(err)
	}
	return sec, nil
}

// SecurityNames returns the name of every security by id.
func (s *Store) SecurityNames(ctx context.Context) (map[int64]string, error) {
	var rows []Security
	if err := s.db.WithContext(ctx).Select("id", "name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load security names: %w", err)
	}
	names := make(map[int64]string, len(rows))
	for _, r := range rows {
		names[r.ID] = r.Name
	}
	return names, nil
}

// AssetTypes returns the distinct lower-cased asset types in use, sorted.
// Securities without one count as DefaultAssetType.
func (s *Store) AssetTypes(ctx context.Context) ([]string, error) {
	var types []string
	err := s.db.WithContext(ctx).Model(&Security{}).
		Distinct().
		Pluck(assetTypeColumn, &types).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load asset types: %w", err)
	}
	for i, t := range types {
		types[i] = strings.TrimSpace(t)
	}
	slices.Sort(types)
	return slices.Compact(types), nil
}

// SetMarketPrice records the price of a security on a day, replacing any
// previous price for that day.
func (s *Store) SetMarketPrice(ctx context.Context, security int64, on date.Date, price folio.Money) error {
	row := MarketPrice{
		SecurityID: security,
		PriceDate:  on,
		Price:      price.Decimal(),
		Currency:   price.Currency(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "security_id"}, {Name: "price_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "currency"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to set market price of security %d: %w", security, err)
	}
	return nil
}

// Quote is a dated market price.
type Quote struct {
	Date  date.Date
	Price folio.Money
}

// LatestMarketPrices returns the most recent price of every security that has
// one.
func (s *Store) LatestMarketPrices(ctx context.Context) (map[int64]Quote, error) {
	db := s.db.WithContext(ctx)
	latest := db.Model(&MarketPrice{}).
		Select("security_id, MAX(price_date) AS price_date").
		Group("security_id")
	var rows []MarketPrice
	err := db.Model(&MarketPrice{}).
		Joins("JOIN (?) AS latest ON latest.security_id = market_prices.security_id AND latest.price_date = market_prices.price_date", latest).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load market prices: %w", err)
	}
	quotes := make(map[int64]Quote, len(rows))
	for _, r := range rows {
		quotes[r.SecurityID] = Quote{Date: r.PriceDate, Price: folio.M(r.Price, r.Currency)}
	}
	return quotes, nil
}
