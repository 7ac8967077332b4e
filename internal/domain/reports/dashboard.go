package reports

// Dashboard computes the all-time summary cards.
func Dashboard(snapshot Snapshot) DashboardSummary {
	cost := TotalCost(snapshot.Production)
	paid := TotalAmount(snapshot.Payments)
	return DashboardSummary{
		TotalCost:              cost,
		TotalPayments:          paid,
		TotalNet:               cost.Sub(paid),
		TotalEmployees:         len(snapshot.Employees),
		TotalProductionEntries: len(snapshot.Production),
		TotalPaymentEntries:    len(snapshot.Payments),
	}
}
