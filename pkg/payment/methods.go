package payment

// Kind groups payment methods by how checkout settles them.
type Kind string

const (
	KindUPI        Kind = "upi"
	KindCard       Kind = "card"
	KindNetBanking Kind = "netbanking"
	KindCounter    Kind = "counter"
)

type Method struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
	Popular     bool   `json:"popular"`
}

var methods = []Method{
	{ID: "phonepe", Name: "PhonePe", Description: "UPI Payment", Kind: KindUPI, Popular: true},
	{ID: "gpay", Name: "Google Pay", Description: "UPI Payment", Kind: KindUPI, Popular: true},
	{ID: "paytm", Name: "Paytm", Description: "UPI, Wallet, Cards", Kind: KindUPI},
	{ID: "upi", Name: "Other UPI", Description: "Any UPI App", Kind: KindUPI},
	{ID: "card", Name: "Credit/Debit Card", Description: "Visa, Mastercard, RuPay", Kind: KindCard},
	{ID: "netbanking", Name: "Net Banking", Description: "All Indian Banks", Kind: KindNetBanking},
	{ID: "cod", Name: "Pay at Counter", Description: "Cash or Card at pickup", Kind: KindCounter},
}

// Methods lists the payment options in display order.
func Methods() []Method {
	return append([]Method{}, methods...)
}

func MethodByID(id string) (Method, bool) {
	for _, m := range methods {
		if m.ID == id {
			return m, true
		}
	}
	return Method{}, false
}
