package generated

func NewProductConverterImpl() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

func NewCustomerConverterImpl() *CustomerConverterImpl {
	return &CustomerConverterImpl{}
}

func NewUserConverterImpl() *UserConverterImpl {
	return &UserConverterImpl{}
}

func NewOrderConverterImpl() *OrderConverterImpl {
	return &OrderConverterImpl{}
}

func NewOutboxEventConverterImpl() *OutboxEventConverterImpl {
	return &OutboxEventConverterImpl{}
}
