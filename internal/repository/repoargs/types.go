package repoargs

type RepositoryName string

const (
	AccountRepoName RepositoryName = "account"
	ProductRepoName RepositoryName = "product"
	VipTierRepoName RepositoryName = "vip_tier"
	OrderRepoName   RepositoryName = "order"
	OutboxRepoName  RepositoryName = "outbox"
)
