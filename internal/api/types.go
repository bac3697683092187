package api

// placeInput: body of add_place and update_place; an id in the body is ignored.
type placeInput struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Address  string `json:"address"`
}

// updateInput: only the address is read; a pointer tells "missing" from "empty".
type updateInput struct {
	Address *string `json:"address"`
}

type messageResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type addressResponse struct {
	Address string `json:"address"`
}

type nameResponse struct {
	Name string `json:"name"`
}

type healthResponse struct {
	Status string `json:"status"`
	Places int64  `json:"places"`
}
