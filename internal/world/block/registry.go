package block

import (
	"fmt"
	"sort"
	"strings"
)

// BlockID представляет идентификатор блока: 0: воздух, любое ненулевое значение: твёрдый блок
type BlockID uint8

// Константы ID блоков
const (
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	DirtBlockID                 // 2
	GrassBlockID                // 3
	SandBlockID                 // 4
	SnowBlockID                 // 5
)

// Info описывает зарегистрированный тип блока
type Info struct {
	ID   BlockID
	Name string
}

var registry = map[BlockID]Info{
	AirBlockID:   {ID: AirBlockID, Name: "air"},
	StoneBlockID: {ID: StoneBlockID, Name: "stone"},
	DirtBlockID:  {ID: DirtBlockID, Name: "dirt"},
	GrassBlockID: {ID: GrassBlockID, Name: "grass"},
	SandBlockID:  {ID: SandBlockID, Name: "sand"},
	SnowBlockID:  {ID: SnowBlockID, Name: "snow"},
}

// Register добавляет тип блока в регистр. Регистр заполняется при инициализации
// и не предназначен для изменения во время работы симуляции.
func Register(id BlockID, name string) error {
	if id == AirBlockID {
		return fmt.Errorf("id %d зарезервирован для воздуха", id)
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("пустое имя блока для id %d", id)
	}
	if existing, ok := registry[id]; ok {
		return fmt.Errorf("id %d уже занят блоком %q", id, existing.Name)
	}
	registry[id] = Info{ID: id, Name: name}
	return nil
}

// Get возвращает описание для указанного ID
func Get(id BlockID) (Info, bool) {
	info, exists := registry[id]
	return info, exists
}

// Name возвращает имя блока; для незарегистрированных: "block#<id>"
func Name(id BlockID) string {
	if info, ok := registry[id]; ok {
		return info.Name
	}
	return fmt.Sprintf("block#%d", id)
}

// ByName ищет блок по имени
func ByName(name string) (BlockID, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id, info := range registry {
		if info.Name == name {
			return id, true
		}
	}
	return AirBlockID, false
}

// All возвращает все зарегистрированные блоки по возрастанию ID
func All() []Info {
	out := make([]Info, 0, len(registry))
	for _, info := range registry {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsSolid сообщает, является ли блок твёрдым
func IsSolid(id BlockID) bool {
	return id != AirBlockID
}

// Clamp приводит произвольное целое к диапазону [0,255]
func Clamp(v int) BlockID {
	switch {
	case v < 0:
		return AirBlockID
	case v > 255:
		return BlockID(255)
	default:
		return BlockID(v)
	}
}
