package argument

// host value types recognized by the classifier

type Vector2 struct{ X, Y float32 }

type Vector3 struct{ X, Y, Z float32 }

type Vector4 struct{ X, Y, Z, W float32 }

type Quaternion struct{ X, Y, Z, W float32 }

type Rect struct{ X, Y, Width, Height float32 }

type Color struct{ R, G, B, A float32 }

// LayerMask is a 32 bit selection mask
type LayerMask uint32

// Char is a single character. rune is an alias of int32 and classifies as Integer
type Char rune

func (m LayerMask) Contains(layer int) bool {
	return m&(1<<uint(layer)) != 0
}
