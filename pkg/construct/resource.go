package construct

type Resource struct {
	ID         ResourceId
	Properties Properties
	// Imported resources stand in for infrastructure owned by someone else. They can be referenced like
	// any other resource but are never declared in a template.
	Imported bool
}

func CreateResource(id ResourceId) *Resource {
	return &Resource{
		ID:         id,
		Properties: make(Properties),
	}
}

func ImportResource(id ResourceId, props Properties) *Resource {
	if props == nil {
		props = make(Properties)
	}
	return &Resource{
		ID:         id,
		Properties: props,
		Imported:   true,
	}
}

// References returns the ids of all resources that the properties of r refer to, in a stable order.
func (r *Resource) References() []ResourceId {
	return References(r.Properties)
}
