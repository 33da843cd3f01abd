package orderevents

const (
	TopicName         = "orders"
	orderCreatedName  = TopicName + ".created"
	orderPaidName     = TopicName + ".paid"
	orderFailedName   = TopicName + ".failed"
	orderRefundedName = TopicName + ".refunded"
)

type OrderCreated struct {
	SessionID string
	OrderUID  string
	Currency  string
	ItemCount int
}

func (e OrderCreated) GetEventTypeName() string {
	return orderCreatedName
}

func (e OrderCreated) GetAggregateName() string {
	return e.SessionID
}

type OrderPaid struct {
	SessionID          string
	OrderUID           string
	CustomerEmail      string
	AmountInMinorUnits int64
	Currency           string
}

func (e OrderPaid) GetEventTypeName() string {
	return orderPaidName
}

func (e OrderPaid) GetAggregateName() string {
	return e.SessionID
}

type OrderFailed struct {
	SessionID string
	OrderUID  string
	Reason    string
}

func (e OrderFailed) GetEventTypeName() string {
	return orderFailedName
}

func (e OrderFailed) GetAggregateName() string {
	return e.SessionID
}

type OrderRefunded struct {
	SessionID          string
	OrderUID           string
	ChargeID           string
	RefundedMinorUnits int64
}

func (e OrderRefunded) GetEventTypeName() string {
	return orderRefundedName
}

func (e OrderRefunded) GetAggregateName() string {
	return e.SessionID
}
