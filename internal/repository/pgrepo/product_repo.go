package pgrepo

import (
	"context"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

// ProductRepository доступ к каталогу только на чтение.
type ProductRepository struct {
	conn uow.DBTX
}

func NewProductRepository(conn uow.DBTX) *ProductRepository {
	return &ProductRepository{conn: conn}
}

func (p *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := p.conn.QueryRow(ctx, `SELECT id, name, price, vip_level_id FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		return nil, convertErr(err, "finding product by id `%d`", id)
	}
	return product, nil
}

// FindByName ищет товар по точному совпадению имени.
func (p *ProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	row := p.conn.QueryRow(ctx, `SELECT id, name, price, vip_level_id FROM products WHERE name = $1`, name)
	product, err := scanProduct(row)
	if err != nil {
		return nil, convertErr(err, "finding product by name `%s`", name)
	}
	return product, nil
}

// ListEligible возвращает товары, доступные уровню args.VipLevelID по цене не выше args.MaxPrice,
// в порядке каталога (по id).
func (p *ProductRepository) ListEligible(
	ctx context.Context,
	args repoargs.EligibleProducts,
) ([]domain.Product, error) {
	rows, err := p.conn.Query(ctx,
		`SELECT id, name, price, vip_level_id FROM products
		WHERE vip_level_id = $1 AND price <= $2
		ORDER BY id`,
		args.VipLevelID, args.MaxPrice,
	)
	if err != nil {
		return nil, convertErr(err, "listing products for vip level `%d`", args.VipLevelID)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning product for vip level `%d`", args.VipLevelID)
		}
		products = append(products, *product)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing products for vip level `%d`", args.VipLevelID)
	}
	return products, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var product domain.Product
	if err := row.Scan(&product.ID, &product.Name, &product.Price, &product.VipLevelID); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &product, nil
}
