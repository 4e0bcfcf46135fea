package authz

const (
	RoleCustomer = "customer"
	RoleWorker   = "worker"
)

func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleWorker
}
