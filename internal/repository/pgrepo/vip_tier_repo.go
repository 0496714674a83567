package pgrepo

import (
	"context"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

type VipTierRepository struct {
	conn uow.DBTX
}

func NewVipTierRepository(conn uow.DBTX) *VipTierRepository {
	return &VipTierRepository{conn: conn}
}

func (v *VipTierRepository) FindByID(ctx context.Context, id int) (*domain.VipTier, error) {
	var tier domain.VipTier
	err := v.conn.QueryRow(ctx, `SELECT id, commission_rate FROM vip_tiers WHERE id = $1`, id).
		Scan(&tier.ID, &tier.CommissionRate)
	if err != nil {
		return nil, convertErr(err, "finding vip tier by id `%d`", id)
	}
	return &tier, nil
}
