package api

// Pet es el resumen de mascota tal como lo devuelve la API del storefront.
// Los tags JSON siguen el contrato del server (ids estilo Mongo con "_id").
type Pet struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Species     string   `json:"species"`
	Breed       string   `json:"breed"`
	Age         int      `json:"age"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Available   bool     `json:"available"`
}

// User es el perfil cacheado que viaja junto al token.
type User struct {
	ID                string `json:"_id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Address           string `json:"address"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

// RegisterInput es el payload de POST /register.
// Address y Phone son opcionales según el server.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// ProfileInput es el payload de PUT /profile.
type ProfileInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

// Prefill son los datos de contacto que el server sugiere para el checkout.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Order es la respuesta de POST /orders/create/{petId}.
// Amount viene en la unidad mínima de la moneda (paise para INR).
type Order struct {
	OrderID  string  `json:"orderId"`
	Amount   int64   `json:"amount"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"keyId"`
	PetName  string  `json:"petName"`
	Prefill  Prefill `json:"prefill"`
}

// PaymentProof son los tres valores que entrega el provider al completar
// un pago. Van tal cual a POST /orders/validate junto con el pet id.
type PaymentProof struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}
